package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/hamperland/storefront/internal/api"
	"github.com/hamperland/storefront/internal/config"
)

func main() {
	configBuilder := config.NewBuilder(
		config.WithProductStore(),
		config.WithOrderStore(),
		config.WithImageUploads(),
		config.WithImageReconciler(),
	)
	config, err := configBuilder.BuildConfig(context.Background(), "api.buildconfig")
	if err != nil {
		panic(fmt.Errorf("could not build config: %w", err))
	}

	lambda.Start(api.Router(*config))
}
