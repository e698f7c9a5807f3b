package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeTable struct {
	items     map[string]map[string]ddbtypes.AttributeValue
	truncated bool
	scanErr   error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	id := in.Item["productId"].(*ddbtypes.AttributeValueMemberS).Value
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	if f.truncated {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{"productId": &ddbtypes.AttributeValueMemberS{Value: "last"}}
	}
	return out, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	id := in.Key["productId"].(*ddbtypes.AttributeValueMemberS).Value
	item, ok := f.items[id]
	if !ok {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	item["imageUploaded"] = in.ExpressionAttributeValues[":uploaded"]
	return &dynamodb.UpdateItemOutput{}, nil
}

type fakeBucket struct {
	objects map[string]bool
}

func (f *fakeBucket) PresignPutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{
		URL:    fmt.Sprintf("https://%s.s3.amazonaws.com/%s?content-type=%s", *in.Bucket, *in.Key, *in.ContentType),
		Method: "PUT",
	}, nil
}

func (f *fakeBucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.objects[*in.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &s3types.NotFound{}
}

func newImages(bucket *fakeBucket) *ImageHandler {
	name := "images"
	return &ImageHandler{Bucket: &name, CDNDomain: "cdn.example.com", Presigner: bucket, Client: bucket}
}

func number(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty falls back to default", input: "", want: "image.jpg"},
		{name: "safe name untouched", input: "hamper-01.png", want: "hamper-01.png"},
		{name: "spaces and symbols replaced", input: "my hamper (1)!.webp", want: "my_hamper__1__.webp"},
		{name: "path separators replaced", input: "../etc/passwd", want: ".._etc_passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"a.jpg":    "image/jpeg",
		"a.JPEG":   "image/jpeg",
		"a.png":    "image/png",
		"a.webp":   "image/webp",
		"a.gif":    "image/gif",
		"a.tiff":   "image/jpeg",
		"noext":    "image/jpeg",
		"a.tar.gz": "image/jpeg",
	}
	for filename, want := range tests {
		t.Run(filename, func(t *testing.T) {
			if got := ContentTypeFor(filename); got != want {
				t.Errorf("ContentTypeFor(%q) = %q, want %q", filename, got, want)
			}
		})
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateRequest
		wantErr   bool
		wantPrice float64
		wantStock int
	}{
		{
			name:      "numbers",
			req:       CreateRequest{Name: "Hamper", Description: "Dry fruits", Price: number("499.5"), CountInStock: number("12")},
			wantPrice: 499.5,
			wantStock: 12,
		},
		{
			name:    "missing name",
			req:     CreateRequest{Description: "Dry fruits", Price: number("1"), CountInStock: number("1")},
			wantErr: true,
		},
		{
			name:    "blank name",
			req:     CreateRequest{Name: "   ", Description: "Dry fruits", Price: number("1"), CountInStock: number("1")},
			wantErr: true,
		},
		{
			name:    "missing description",
			req:     CreateRequest{Name: "Hamper", Price: number("1"), CountInStock: number("1")},
			wantErr: true,
		},
		{
			name:    "missing price",
			req:     CreateRequest{Name: "Hamper", Description: "Dry fruits", CountInStock: number("1")},
			wantErr: true,
		},
		{
			name:    "missing stock",
			req:     CreateRequest{Name: "Hamper", Description: "Dry fruits", Price: number("1")},
			wantErr: true,
		},
		{
			name:      "zero price allowed",
			req:       CreateRequest{Name: "Sample", Description: "Free", Price: number("0"), CountInStock: number("0")},
			wantPrice: 0,
			wantStock: 0,
		},
		{
			name:    "fractional stock",
			req:     CreateRequest{Name: "Hamper", Description: "Dry fruits", Price: number("1"), CountInStock: number("1.5")},
			wantErr: true,
		},
		{
			name:    "negative price",
			req:     CreateRequest{Name: "Hamper", Description: "Dry fruits", Price: number("-1"), CountInStock: number("1")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, stock, err := tt.req.Validate()
			if tt.wantErr {
				var reqErr *RequestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("expected a RequestError, got %v", err)
				}
				if strings.HasPrefix(tt.name, "missing") || strings.HasPrefix(tt.name, "blank") {
					if reqErr.Message != missingFieldsMessage {
						t.Fatalf("unexpected message %q", reqErr.Message)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if price != tt.wantPrice || stock != tt.wantStock {
				t.Fatalf("got price %v stock %d, want %v %d", price, stock, tt.wantPrice, tt.wantStock)
			}
		})
	}
}

func TestCreateRequestAcceptsNumericStrings(t *testing.T) {
	var req CreateRequest
	body := `{"name":"Hamper","description":"Dry fruits","price":"250","countInStock":"7"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	price, stock, err := req.Validate()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if price != 250 || stock != 7 {
		t.Fatalf("got price %v stock %d", price, stock)
	}
}

func TestNewProductImageURL(t *testing.T) {
	images := newImages(&fakeBucket{})
	req := CreateRequest{Name: "Hamper", Description: "Dry fruits", Filename: "gift box.png"}

	upload := req.PlanUpload("p-1")
	if upload.Key != "products/p-1/gift_box.png" {
		t.Fatalf("unexpected key %s", upload.Key)
	}
	if upload.ContentType != "image/png" {
		t.Fatalf("unexpected content type %s", upload.ContentType)
	}

	product := NewProduct("p-1", req, 10, 3, upload, images)
	if product.Image != "https://cdn.example.com/products/p-1/gift_box.png" {
		t.Fatalf("unexpected image url %s", product.Image)
	}
	if product.ImageUploaded {
		t.Fatalf("new product must not claim an uploaded image")
	}
	if limit, ok := product.StockLimit(); !ok || limit != 3 {
		t.Fatalf("unexpected stock %d %v", limit, ok)
	}
}

func TestPlanUploadDeclaredContentTypeWins(t *testing.T) {
	req := CreateRequest{ContentType: "image/avif"}
	upload := req.PlanUpload("p-2")
	if upload.Key != "products/p-2/image.jpg" {
		t.Fatalf("unexpected key %s", upload.Key)
	}
	if upload.ContentType != "image/avif" {
		t.Fatalf("unexpected content type %s", upload.ContentType)
	}
}

func TestPresignUpload(t *testing.T) {
	images := newImages(&fakeBucket{})
	url, err := images.PresignUpload(context.Background(), "products/p-1/image.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "https://images.s3.amazonaws.com/products/p-1/image.jpg?content-type=image/jpeg" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestStoreAndList(t *testing.T) {
	table := newFakeTable()
	handler := NewHandlerWithClient(table, "products")
	ctx := context.Background()

	stored := []Product{
		{ID: "a", Name: "Almonds", Price: 100, CountInStock: Stock(2), Image: "https://cdn/a", ImageKey: "products/a/image.jpg"},
		{ID: "b", Name: "Cashews", Price: 150, CountInStock: Stock(0), Image: "https://cdn/b", ImageKey: "products/b/image.jpg"},
	}
	for _, p := range stored {
		if err := handler.Store(ctx, p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	table.truncated = true
	list, err := handler.List(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 products, got %d", len(list))
	}

	byID := map[string]Product{}
	for _, p := range list {
		byID[p.ID] = p
	}
	if byID["a"].Name != "Almonds" || *byID["a"].CountInStock != 2 {
		t.Fatalf("unexpected product a: %+v", byID["a"])
	}
	if byID["b"].CountInStock == nil || *byID["b"].CountInStock != 0 {
		t.Fatalf("zero stock must survive a round trip: %+v", byID["b"])
	}
}

func TestListScanError(t *testing.T) {
	table := newFakeTable()
	table.scanErr = errors.New("throttled")
	if _, err := NewHandlerWithClient(table, "products").List(context.Background()); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestReconcile(t *testing.T) {
	table := newFakeTable()
	store := NewHandlerWithClient(table, "products")
	bucket := &fakeBucket{objects: map[string]bool{"products/a/image.jpg": true}}
	reconciler := &Reconciler{Store: store, Images: newImages(bucket)}
	ctx := context.Background()

	for _, p := range []Product{
		{ID: "a", ImageKey: "products/a/image.jpg"},
		{ID: "b", ImageKey: "products/b/image.jpg"},
		{ID: "c", ImageKey: "products/c/image.jpg", ImageUploaded: true},
	} {
		if err := store.Store(ctx, p); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	marked, err := reconciler.Reconcile(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(marked) != 1 || marked[0] != "a" {
		t.Fatalf("expected only a to be marked, got %v", marked)
	}

	list, _ := store.List(ctx)
	pending := PendingImages(list)
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Fatalf("expected only b pending, got %+v", pending)
	}

	t.Run("restricted to ids", func(t *testing.T) {
		bucket.objects["products/b/image.jpg"] = true
		marked, err := reconciler.Reconcile(ctx, "zzz")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(marked) != 0 {
			t.Fatalf("expected nothing marked, got %v", marked)
		}
	})
}
