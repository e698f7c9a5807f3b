package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/hamperland/storefront/internal/config"
)

func main() {
	configBuilder := config.NewBuilder(config.WithProductStore(), config.WithImageUploads())
	config, err := configBuilder.BuildConfig(context.Background(), "reconcile_product_images.buildconfig")
	if err != nil {
		panic(fmt.Errorf("could not build config: %w", err))
	}

	lambda.Start(HandleRequest(config))
}
