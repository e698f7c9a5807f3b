package products

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const missingFieldsMessage = "Missing required fields: name, price, description or countInStock"

// RequestError is a problem with a create request that the caller must fix.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// CreateRequest is the body of a product creation call. Price and stock are
// accepted either as JSON numbers or as numeric strings.
type CreateRequest struct {
	Name         string       `json:"name" validate:"required"`
	Description  string       `json:"description" validate:"required"`
	Price        *json.Number `json:"price" validate:"required"`
	CountInStock *json.Number `json:"countInStock" validate:"required"`
	Filename     string       `json:"filename,omitempty"`
	ContentType  string       `json:"contentType,omitempty"`
}

// Validate checks the required fields and returns the parsed price and stock.
func (r CreateRequest) Validate() (price float64, stock int, err error) {
	trimmed := r
	trimmed.Name = strings.TrimSpace(r.Name)
	trimmed.Description = strings.TrimSpace(r.Description)
	if err := validate.Struct(trimmed); err != nil {
		return 0, 0, &RequestError{Message: missingFieldsMessage}
	}

	price, err = r.Price.Float64()
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, 0, &RequestError{Message: fmt.Sprintf("Invalid price: %s", r.Price.String())}
	}

	count, err := r.CountInStock.Float64()
	if err != nil || count < 0 || count != math.Trunc(count) {
		return 0, 0, &RequestError{Message: fmt.Sprintf("Invalid countInStock: %s", r.CountInStock.String())}
	}

	return price, int(count), nil
}

// CreateResponse carries the new product and the presigned URL its image
// must be PUT to.
type CreateResponse struct {
	Message   string  `json:"message"`
	UploadURL string  `json:"uploadUrl"`
	Product   Product `json:"product"`
}

// Upload describes where the image for a new product must be sent.
type Upload struct {
	Key         string
	ContentType string
}

// PlanUpload picks the storage key and content type for a new product image.
func (r CreateRequest) PlanUpload(productID string) Upload {
	filename := SanitizeFilename(r.Filename)

	contentType := r.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(filename)
	}

	return Upload{
		Key:         ObjectKey(productID, filename),
		ContentType: contentType,
	}
}

// NewProduct builds the record persisted for a validated request. The image
// URL points at the content-delivery domain whether or not the upload has
// happened yet.
func NewProduct(id string, r CreateRequest, price float64, stock int, upload Upload, images *ImageHandler) Product {
	return Product{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		Price:        price,
		CountInStock: Stock(stock),
		ImageKey:     upload.Key,
		Image:        images.PublicURL(upload.Key),
	}
}
