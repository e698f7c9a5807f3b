package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const orderIDLength = 8

// RequestError is a problem with an order request that the caller must fix.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

var (
	ErrNoItems        = &RequestError{Message: "Order must contain items"}
	ErrNoShippingAddr = &RequestError{Message: "Shipping address is required"}
)

// NewID returns a short order identifier: the first eight hex characters of
// a random UUID, upper-cased.
func NewID() string {
	return strings.ToUpper(uuid.NewString()[:orderIDLength])
}

// New validates the request and stamps a fresh order placed at now.
func New(req CreateRequest, now time.Time) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if req.ShippingAddress == nil {
		return nil, ErrNoShippingAddr
	}

	return &Order{
		OrderID:         NewID(),
		Items:           req.Items,
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   PaymentStatusPending,
		OrderStatus:     OrderStatusPlaced,
		Totals:          req.Totals,
		CreatedAt:       now.UTC(),
	}, nil
}

// ComputeTotals sums quantities and line prices over items.
func ComputeTotals(items []Item) (int, decimal.Decimal) {
	count := 0
	price := decimal.Zero
	for _, item := range items {
		count += item.Qty
		price = price.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return count, price
}

// TotalsMatch reports whether the totals declared on the order agree with its
// items, to the cent.
func (o Order) TotalsMatch() bool {
	count, price := ComputeTotals(o.Items)
	declared := decimal.NewFromFloat(o.Totals.TotalPrice)
	return count == o.Totals.TotalItems && price.Round(2).Equal(declared.Round(2))
}
