// Package storefront is the shopper-side client of the orders and products
// services, and the checkout workflow built on it.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
	"golang.org/x/exp/slog"
)

const (
	msgNetwork         = "Network response was not ok"
	msgOrderNotFound   = "Order not found"
	msgProductCreate   = "Failed to create product entry"
	msgImageUpload     = "Failed to upload image to S3"
	defaultHTTPTimeout = 30 * time.Second
)

// StatusError is returned when a service answers with a non-2xx status or
// cannot be reached at all. StatusCode is zero for transport failures.
type StatusError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

type Client struct {
	OrdersURL   string
	ProductsURL string
	HTTP        *http.Client
	Logger      *slog.Logger
}

func NewClient(ordersURL, productsURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		OrdersURL:   strings.TrimRight(ordersURL, "/"),
		ProductsURL: strings.TrimRight(productsURL, "/"),
		HTTP:        &http.Client{Timeout: defaultHTTPTimeout},
		Logger:      logger,
	}
}

// NewClientFromEnv reads ORDERS_API_URL and PRODUCTS_API_URL.
func NewClientFromEnv(logger *slog.Logger) (*Client, error) {
	ordersURL := os.Getenv("ORDERS_API_URL")
	productsURL := os.Getenv("PRODUCTS_API_URL")
	if ordersURL == "" || productsURL == "" {
		return nil, fmt.Errorf("ORDERS_API_URL and PRODUCTS_API_URL must be set")
	}
	return NewClient(ordersURL, productsURL, logger), nil
}

func (c *Client) do(ctx context.Context, method, target string, body any, failure string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Warn("Request failed", "method", method, "url", target, "error", err)
		return &StatusError{Message: failure, Err: err}
	}
	defer resp.Body.Close()

	c.Logger.Debug("Response received", "method", method, "url", target, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Message: failure, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StatusError{Message: failure, StatusCode: resp.StatusCode, Err: fmt.Errorf("could not decode response: %w", err)}
	}
	return nil
}

// SubmitOrder posts req to the orders service and returns the stored order.
func (c *Client) SubmitOrder(ctx context.Context, req orders.CreateRequest) (*orders.CreateResponse, error) {
	var resp orders.CreateResponse
	if err := c.do(ctx, http.MethodPost, c.OrdersURL, req, msgNetwork, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*orders.Order, error) {
	var order orders.Order
	target := c.OrdersURL + "/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodGet, target, nil, msgOrderNotFound, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) FetchProducts(ctx context.Context) ([]products.Product, error) {
	list := []products.Product{}
	if err := c.do(ctx, http.MethodGet, c.ProductsURL, nil, msgNetwork, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateProduct registers a product and returns the URL its image must be
// uploaded to with UploadImage.
func (c *Client) CreateProduct(ctx context.Context, req products.CreateRequest) (*products.CreateResponse, error) {
	var resp products.CreateResponse
	if err := c.do(ctx, http.MethodPost, c.ProductsURL, req, msgProductCreate, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadImage PUTs the raw image bytes to a presigned URL. The content type
// must match the one the URL was signed for.
func (c *Client) UploadImage(ctx context.Context, uploadURL, contentType string, image io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, image)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &StatusError{Message: msgImageUpload, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Message: msgImageUpload, StatusCode: resp.StatusCode}
	}
	return nil
}

// AddProduct runs both steps of product creation. When the upload fails the
// product record already exists without an image; the returned response is
// still populated so the caller can retry the upload.
func (c *Client) AddProduct(ctx context.Context, req products.CreateRequest, image io.Reader) (*products.CreateResponse, error) {
	created, err := c.CreateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	upload := req.PlanUpload(created.Product.ID)
	if err := c.UploadImage(ctx, created.UploadURL, upload.ContentType, image); err != nil {
		c.Logger.Warn("Product created without image", "product", created.Product.ID, "error", err)
		return created, err
	}
	return created, nil
}
