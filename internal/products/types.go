package products

// Product is a catalog entry as stored in the products table and as returned
// by the products API.
type Product struct {
	ID            string  `json:"id" dynamodbav:"productId"`                                  // Partition key.
	Name          string  `json:"name" dynamodbav:"name"`                                     // Display name.
	Description   string  `json:"description" dynamodbav:"description"`                       // Free-form description.
	Price         float64 `json:"price" dynamodbav:"price"`                                   // Unit price.
	CountInStock  *int    `json:"countInStock,omitempty" dynamodbav:"countInStock,omitempty"` // Units available; nil means unbounded.
	Image         string  `json:"image" dynamodbav:"image"`                                   // Public content-delivery URL of the image.
	ImageKey      string  `json:"imageKey,omitempty" dynamodbav:"imageKey,omitempty"`         // Object storage key of the image.
	ImageUploaded bool    `json:"imageUploaded" dynamodbav:"imageUploaded"`                   // Set once the image object is known to exist.
}

// StockLimit returns the number of units available and whether stock is
// tracked at all for the product.
func (p Product) StockLimit() (int, bool) {
	if p.CountInStock == nil {
		return 0, false
	}
	return *p.CountInStock, true
}

// Stock is a convenience for building a Product with a tracked stock count.
func Stock(n int) *int {
	return &n
}
