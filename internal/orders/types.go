package orders

import (
	"time"
)

// PaymentMethod is the payment option chosen at checkout. No gateway sits
// behind either option; they are labels carried on the order.
type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "cod"
	PaymentUPI PaymentMethod = "upi"
)

// Valid reports whether the payment method is one the storefront offers.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentUPI
}

const (
	PaymentStatusPending = "PENDING"
	OrderStatusPlaced    = "PLACED"
)

// Item is a denormalized snapshot of one cart line at the time of ordering.
type Item struct {
	ID    string  `json:"id" dynamodbav:"id"`
	Name  string  `json:"name" dynamodbav:"name"`
	Qty   int     `json:"qty" dynamodbav:"qty"`
	Price float64 `json:"price" dynamodbav:"price"`
	Image string  `json:"image" dynamodbav:"image"`
}

type ShippingAddress struct {
	Name    string `json:"name" dynamodbav:"name"`
	Phone   string `json:"phone" dynamodbav:"phone"`
	Address string `json:"address" dynamodbav:"address"`
	City    string `json:"city" dynamodbav:"city"`
	State   string `json:"state" dynamodbav:"state"`
	Pincode string `json:"pincode" dynamodbav:"pincode"`
}

type Totals struct {
	TotalItems int     `json:"totalItems" dynamodbav:"totalItems"`
	TotalPrice float64 `json:"totalPrice" dynamodbav:"totalPrice"`
}

// Order is the server-canonical record of a completed checkout.
type Order struct {
	OrderID         string          `json:"orderId" dynamodbav:"orderId"` // Partition key.
	Items           []Item          `json:"items" dynamodbav:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress" dynamodbav:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" dynamodbav:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus" dynamodbav:"paymentStatus"`
	OrderStatus     string          `json:"orderStatus" dynamodbav:"orderStatus"`
	Totals          Totals          `json:"totals" dynamodbav:"totals"`
	CreatedAt       time.Time       `json:"createdAt" dynamodbav:"createdAt"`
}

// CreateRequest is the body accepted when placing an order.
type CreateRequest struct {
	Items           []Item           `json:"items"`
	ShippingAddress *ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod"`
	Totals          Totals           `json:"totals"`
}

// CreateResponse is returned once an order has been persisted.
type CreateResponse struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}
