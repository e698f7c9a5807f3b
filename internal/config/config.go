package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
)

// LambdaInvoker is the subset of the Lambda client used to trigger other
// functions asynchronously.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

type Config struct {
	ProductStore *products.Handler
	OrderStore   *orders.Handler
	Images       *products.ImageHandler

	LambdaClient                LambdaInvoker
	ReconcileImagesFunctionName string
}

// Reconciler returns a reconciler over the configured product table and
// images bucket, or nil when either is missing.
func (c Config) Reconciler() *products.Reconciler {
	if c.ProductStore == nil || c.Images == nil {
		return nil
	}
	return &products.Reconciler{Store: c.ProductStore, Images: c.Images}
}
