package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/hamperland/storefront/internal/orders"
	"github.com/hamperland/storefront/internal/products"
)

type Builder struct {
	IncludeProductStore    bool
	IncludeOrderStore      bool
	IncludeImageUploads    bool
	IncludeImageReconciler bool

	AWSConfig aws.Config
	Getenv    func(string) string
}

func NewBuilder(options ...func(*Builder)) *Builder {
	configBuilder := &Builder{Getenv: os.Getenv}
	for _, option := range options {
		option(configBuilder)
	}
	return configBuilder
}

func WithProductStore() func(*Builder) {
	return func(builder *Builder) {
		builder.IncludeProductStore = true
	}
}

func WithOrderStore() func(*Builder) {
	return func(builder *Builder) {
		builder.IncludeOrderStore = true
	}
}

// WithImageUploads enables presigned uploads into the product images bucket.
func WithImageUploads() func(*Builder) {
	return func(builder *Builder) {
		builder.IncludeImageUploads = true
	}
}

// WithImageReconciler enables asynchronous invocation of the function that
// reconciles product records with uploaded images.
func WithImageReconciler() func(*Builder) {
	return func(builder *Builder) {
		builder.IncludeImageReconciler = true
	}
}

func (b *Builder) SetupAWS(ctx context.Context) error {
	var err error
	b.AWSConfig, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(b.Getenv("AWS_REGION")))
	return err
}

func (b *Builder) requireEnv(name string) (string, error) {
	value := b.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%s environment variable not set", name)
	}
	return value, nil
}

func (b *Builder) SetupProductStore() (*products.Handler, error) {
	if !b.IncludeProductStore {
		return nil, nil //nolint:nilnil // Not requested.
	}

	tableName, err := b.requireEnv("PRODUCTS_TABLE_NAME")
	if err != nil {
		return nil, err
	}
	return products.NewHandler(b.AWSConfig, tableName), nil
}

func (b *Builder) SetupOrderStore() (*orders.Handler, error) {
	if !b.IncludeOrderStore {
		return nil, nil //nolint:nilnil // Not requested.
	}

	tableName, err := b.requireEnv("ORDERS_TABLE_NAME")
	if err != nil {
		return nil, err
	}
	return orders.NewHandler(b.AWSConfig, tableName), nil
}

func (b *Builder) SetupImages() (*products.ImageHandler, error) {
	if !b.IncludeImageUploads {
		return nil, nil //nolint:nilnil // Not requested.
	}

	bucket, err := b.requireEnv("BUCKET_NAME")
	if err != nil {
		return nil, err
	}
	cdnDomain, err := b.requireEnv("CLOUDFRONT_DOMAIN")
	if err != nil {
		return nil, err
	}
	return products.NewImageHandler(b.AWSConfig, bucket, cdnDomain), nil
}

// SetupReconcileFunction returns the name of the reconcile function. It is
// optional: without it, listings never trigger a reconcile.
func (b *Builder) SetupReconcileFunction() string {
	if !b.IncludeImageReconciler {
		return ""
	}
	return b.Getenv("RECONCILE_PRODUCT_IMAGES_FUNCTION_NAME")
}

func (b *Builder) BuildConfig(ctx context.Context, xraySegmentName string) (*Config, error) {
	var err error
	if err = xray.Configure(xray.Config{ServiceVersion: "1.0.0"}); err != nil {
		return nil, fmt.Errorf("could not configure X-Ray: %w", err)
	}

	// At this point we're not part of a Lambda request execution, so let's
	// explicitly create a segment to represent the configuration process.
	ctx, segment := xray.BeginSegment(ctx, xraySegmentName)
	defer func() { segment.Close(err) }()

	if err = b.SetupAWS(ctx); err != nil {
		return nil, fmt.Errorf("could not load AWS configuration: %w", err)
	}

	config := &Config{}
	if config.ProductStore, err = b.SetupProductStore(); err != nil {
		return nil, err
	}
	if config.OrderStore, err = b.SetupOrderStore(); err != nil {
		return nil, err
	}
	if config.Images, err = b.SetupImages(); err != nil {
		return nil, err
	}

	config.ReconcileImagesFunctionName = b.SetupReconcileFunction()
	if config.ReconcileImagesFunctionName != "" {
		config.LambdaClient = lambda.NewFromConfig(b.AWSConfig)
	}

	return config, nil
}
