package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hamperland/storefront/internal/config"
	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
)

// fakeTable is an in-memory table keyed by a single string partition key.
type fakeTable struct {
	key   string
	items map[string]map[string]ddbtypes.AttributeValue
	err   error
}

func newFakeTable(key string) *fakeTable {
	return &fakeTable{key: key, items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := in.Key[f.key].(*ddbtypes.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := in.Item[f.key].(*ddbtypes.AttributeValueMemberS).Value
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, f.err
}

type fakePresigner struct{}

func (fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: fmt.Sprintf("https://%s.s3.test/%s?X-Amz-Expires=300", *in.Bucket, *in.Key), Method: http.MethodPut}, nil
}

func (fakePresigner) HeadObject(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

type fakeInvoker struct {
	calls []*lambda.InvokeInput
}

func (f *fakeInvoker) Invoke(_ context.Context, in *lambda.InvokeInput, _ ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	f.calls = append(f.calls, in)
	return &lambda.InvokeOutput{StatusCode: http.StatusAccepted}, nil
}

type fixture struct {
	config   config.Config
	orders   *fakeTable
	products *fakeTable
	invoker  *fakeInvoker
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newFakeTable("orderId"),
		products: newFakeTable("productId"),
		invoker:  &fakeInvoker{},
	}
	bucket := "product-images"
	f.config = config.Config{
		OrderStore:   orders.NewHandlerWithClient(f.orders, "orders"),
		ProductStore: products.NewHandlerWithClient(f.products, "products"),
		Images: &products.ImageHandler{
			Bucket:    &bucket,
			CDNDomain: "d111.cloudfront.net",
			Presigner: fakePresigner{},
			Client:    fakePresigner{},
		},
		LambdaClient:                f.invoker,
		ReconcileImagesFunctionName: "reconcile-product-images",
	}
	return f
}

func (f *fixture) call(t *testing.T, method, path, body string) events.APIGatewayProxyResponse {
	t.Helper()
	req := events.APIGatewayProxyRequest{HTTPMethod: method, Path: path, Body: body}
	handler := getRouteHandler(Routes(f.config), &req)
	if handler == nil {
		t.Fatalf("no handler for %s %s", method, path)
	}
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("expected CORS header on every response, got %v", res.Headers)
	}
	return res
}

const validOrder = `{
	"items": [{"id": "p1", "name": "Almonds", "qty": 2, "price": 250, "image": "https://cdn/p1"}],
	"shippingAddress": {"name": "Asha", "phone": "9876543210", "address": "12 MG Road", "city": "Pune", "state": "Maharashtra", "pincode": "411001"},
	"paymentMethod": "cod",
	"totals": {"totalItems": 2, "totalPrice": 500}
}`

func TestCreateOrder(t *testing.T) {
	f := newFixture()

	res := f.call(t, http.MethodPost, "/orders", validOrder)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, res.Body)
	}

	var body orders.CreateResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}
	if body.Message != "Order placed successfully" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Order.PaymentStatus != "PENDING" || body.Order.OrderStatus != "PLACED" {
		t.Fatalf("unexpected statuses %+v", body.Order)
	}
	if len(body.Order.OrderID) != 8 {
		t.Fatalf("unexpected order id %q", body.Order.OrderID)
	}
	if _, ok := f.orders.items[body.Order.OrderID]; !ok {
		t.Fatalf("order was not persisted under its id")
	}

	t.Run("fetch it back", func(t *testing.T) {
		res := f.call(t, http.MethodGet, "/orders/"+body.Order.OrderID, "")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", res.StatusCode)
		}
		var order orders.Order
		if err := json.Unmarshal([]byte(res.Body), &order); err != nil {
			t.Fatalf("could not decode body: %v", err)
		}
		if order.OrderID != body.Order.OrderID || order.ShippingAddress.City != "Pune" {
			t.Fatalf("unexpected order %+v", order)
		}
	})
}

func TestCreateOrderRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty items", body: `{"items": [], "shippingAddress": {"name": "Asha"}}`, message: "Order must contain items"},
		{name: "missing items", body: `{"shippingAddress": {"name": "Asha"}}`, message: "Order must contain items"},
		{name: "missing address", body: `{"items": [{"id": "p1", "qty": 1}]}`, message: "Shipping address is required"},
		{name: "malformed body", body: `{"items": [`, message: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			res := f.call(t, http.MethodPost, "/orders", tt.body)
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", res.StatusCode)
			}
			if !strings.Contains(res.Body, tt.message) {
				t.Fatalf("expected %q in body, got %s", tt.message, res.Body)
			}
			if len(f.orders.items) != 0 {
				t.Fatalf("nothing should be persisted")
			}
		})
	}
}

func TestCreateOrderStoreFailure(t *testing.T) {
	f := newFixture()
	f.orders.err = errors.New("boom")

	res := f.call(t, http.MethodPost, "/orders", validOrder)
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.StatusCode)
	}
	if strings.Contains(res.Body, "boom") {
		t.Fatalf("internal errors must not leak: %s", res.Body)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture()
	res := f.call(t, http.MethodGet, "/orders/MISSING1", "")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Body, "Order not found") {
		t.Fatalf("unexpected body %s", res.Body)
	}
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()

	res := f.call(t, http.MethodPost, "/products", `{"name": "Festive Hamper", "price": 999, "description": "Sweets and dry fruits", "countInStock": "5", "contentType": "image/png"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, res.Body)
	}

	var body products.CreateResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}

	key := "products/" + body.Product.ID + "/image.jpg"
	if body.Product.ImageKey != key {
		t.Fatalf("unexpected key %s", body.Product.ImageKey)
	}
	if body.Product.Image != "https://d111.cloudfront.net/"+key {
		t.Fatalf("image url must derive from the cdn domain and key, got %s", body.Product.Image)
	}
	if body.UploadURL != "https://product-images.s3.test/"+key+"?X-Amz-Expires=300" {
		t.Fatalf("unexpected upload url %s", body.UploadURL)
	}
	if body.Product.CountInStock == nil || *body.Product.CountInStock != 5 {
		t.Fatalf("unexpected stock %v", body.Product.CountInStock)
	}
	if _, ok := f.products.items[body.Product.ID]; !ok {
		t.Fatalf("product was not persisted")
	}
}

func TestCreateProductMissingFields(t *testing.T) {
	f := newFixture()
	res := f.call(t, http.MethodPost, "/products", `{"name": "Festive Hamper", "price": 999}`)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Body, "Missing required fields") {
		t.Fatalf("unexpected body %s", res.Body)
	}
}

func TestListProducts(t *testing.T) {
	f := newFixture()
	f.call(t, http.MethodPost, "/products", `{"name": "A", "price": 1, "description": "a", "countInStock": 1}`)
	f.call(t, http.MethodPost, "/products", `{"name": "B", "price": 2, "description": "b", "countInStock": 2}`)

	res := f.call(t, http.MethodGet, "/products", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var list []products.Product
	if err := json.Unmarshal([]byte(res.Body), &list); err != nil {
		t.Fatalf("could not decode body: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 products, got %d", len(list))
	}

	if len(f.invoker.calls) != 1 {
		t.Fatalf("expected one reconcile invocation, got %d", len(f.invoker.calls))
	}
	var event products.ReconcileEvent
	if err := json.Unmarshal(f.invoker.calls[0].Payload, &event); err != nil {
		t.Fatalf("could not decode payload: %v", err)
	}
	if len(event.ProductIDs) != 2 {
		t.Fatalf("expected both products to be pending, got %v", event.ProductIDs)
	}
}

func TestListProductsEmpty(t *testing.T) {
	f := newFixture()
	res := f.call(t, http.MethodGet, "/products", "")
	if res.Body != "[]" {
		t.Fatalf("expected an empty json array, got %s", res.Body)
	}
	if len(f.invoker.calls) != 0 {
		t.Fatalf("nothing pending, nothing to reconcile")
	}
}

func TestGetRouteHandler(t *testing.T) {
	routes := Routes(newFixture().config)

	tests := []struct {
		method string
		path   string
		found  bool
		id     string
	}{
		{method: http.MethodPost, path: "/orders", found: true},
		{method: http.MethodGet, path: "/orders/ABCD1234", found: true, id: "ABCD1234"},
		{method: http.MethodGet, path: "/orders/ABCD1234/", found: true, id: "ABCD1234"},
		{method: http.MethodGet, path: "/products", found: true},
		{method: http.MethodPost, path: "/products", found: true},
		{method: http.MethodDelete, path: "/products", found: false},
		{method: http.MethodGet, path: "/orders/a/b", found: false},
		{method: http.MethodGet, path: "/admin", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := events.APIGatewayProxyRequest{HTTPMethod: tt.method, Path: tt.path}
			handler := getRouteHandler(routes, &req)
			if (handler != nil) != tt.found {
				t.Fatalf("expected found=%v", tt.found)
			}
			if tt.id != "" && req.PathParameters["id"] != tt.id {
				t.Fatalf("expected id %q, got %q", tt.id, req.PathParameters["id"])
			}
		})
	}
}

func TestDecodeBase64Body(t *testing.T) {
	req := events.APIGatewayProxyRequest{Body: "eyJtZXNzYWdlIjoiaGkifQ==", IsBase64Encoded: true}
	var body messageBody
	if err := decodeBody(req, &body); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if body.Message != "hi" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}
