package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hamperland/storefront/internal/cart"
	"github.com/hamperland/storefront/internal/checkout"
	"github.com/hamperland/storefront/internal/kv"
	"github.com/hamperland/storefront/internal/orders"
	"golang.org/x/exp/slog"
)

// ErrEmptyCart is returned when placing an order with nothing in the cart.
var ErrEmptyCart = errors.New("storefront: cart is empty")

var errMissingOrder = errors.New("response carried no order id")

// OrderService is the part of the orders API the checkout needs.
type OrderService interface {
	SubmitOrder(ctx context.Context, req orders.CreateRequest) (*orders.CreateResponse, error)
	GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
}

// Form is what the shopper filled in on the checkout page.
type Form struct {
	ShippingAddress orders.ShippingAddress
	PaymentMethod   orders.PaymentMethod
}

// Confirmation identifies a placed order and carries its canonical record.
type Confirmation struct {
	OrderID string
	Order   orders.Order
}

// SessionKey is the session store key of the confirmation snapshot for
// orderID.
func SessionKey(orderID string) string {
	return "order-" + orderID
}

type Checkout struct {
	Orders  OrderService
	Cart    *cart.Cart
	Session kv.Store
	Errors  *checkout.Errors
	Logger  *slog.Logger
}

func NewCheckout(orderService OrderService, c *cart.Cart, session kv.Store, logger *slog.Logger) *Checkout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{
		Orders:  orderService,
		Cart:    c,
		Session: session,
		Errors:  checkout.NewErrors(),
		Logger:  logger,
	}
}

// BuildRequest turns the cart lines and the form into an order request.
func BuildRequest(items []cart.Item, form Form) orders.CreateRequest {
	orderItems := make([]orders.Item, len(items))
	for i, item := range items {
		orderItems[i] = item.OrderItem()
	}

	method := form.PaymentMethod
	if method == "" {
		method = orders.PaymentCOD
	}

	addr := checkout.Trim(form.ShippingAddress)
	count, price := orders.ComputeTotals(orderItems)
	return orders.CreateRequest{
		Items:           orderItems,
		ShippingAddress: &addr,
		PaymentMethod:   method,
		Totals: orders.Totals{
			TotalItems: count,
			TotalPrice: price.Round(2).InexactFloat64(),
		},
	}
}

// PlaceOrder validates the form, submits the cart as an order and clears the
// cart once the order service has accepted it. On any failure before that
// point the cart is left as it was.
func (c *Checkout) PlaceOrder(ctx context.Context, form Form) (*Confirmation, error) {
	items := c.Cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if errs := checkout.Validate(form.ShippingAddress); len(errs) > 0 {
		if c.Errors != nil {
			c.Errors.Raise(errs)
		}
		return nil, &checkout.ValidationError{Errors: errs}
	}

	req := BuildRequest(items, form)
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("unsupported payment method %q", req.PaymentMethod)
	}

	resp, err := c.Orders.SubmitOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Order.OrderID == "" {
		c.Logger.Warn("Order service accepted the order without returning it")
		return nil, &StatusError{Message: msgNetwork, Err: errMissingOrder}
	}
	order := resp.Order

	if snapshot, err := json.Marshal(order); err != nil {
		c.Logger.Warn("Could not encode order snapshot", "order", order.OrderID, "error", err)
	} else if err := c.Session.Set(ctx, SessionKey(order.OrderID), snapshot); err != nil {
		c.Logger.Warn("Could not write order to session", "order", order.OrderID, "error", err)
	}

	if err := c.Cart.Clear(ctx); err != nil {
		c.Logger.Error("Order placed but cart could not be cleared", "order", order.OrderID, "error", err)
	}

	c.Logger.Info("Order placed", "order", order.OrderID, "items", order.Totals.TotalItems)
	return &Confirmation{OrderID: order.OrderID, Order: order}, nil
}

// Confirmation returns the order shown on the confirmation view, preferring
// the session snapshot and falling back to the orders service.
func (c *Checkout) Confirmation(ctx context.Context, orderID string) (*Confirmation, error) {
	data, err := c.Session.Get(ctx, SessionKey(orderID))
	switch {
	case err == nil:
		var order orders.Order
		decodeErr := json.Unmarshal(data, &order)
		if decodeErr == nil {
			return &Confirmation{OrderID: orderID, Order: order}, nil
		}
		c.Logger.Warn("Failed to parse order from session", "order", orderID, "error", decodeErr)
	case !errors.Is(err, kv.ErrNotFound):
		c.Logger.Warn("Could not read order from session", "order", orderID, "error", err)
	}

	order, err := c.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Confirmation{OrderID: orderID, Order: *order}, nil
}

// DismissConfirmation drops the session snapshot once the shopper leaves the
// confirmation view.
func (c *Checkout) DismissConfirmation(ctx context.Context, orderID string) error {
	return c.Session.Delete(ctx, SessionKey(orderID))
}
