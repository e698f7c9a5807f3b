package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/hamperland/storefront/internal/config"
	"github.com/hamperland/storefront/internal/products"
	"golang.org/x/exp/slog"
)

type LambdaFunc func(ctx context.Context, e products.ReconcileEvent) (string, error)

func setupLogging(e products.ReconcileEvent) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger = logger.With("product_ids", e.ProductIDs)
	slog.SetDefault(logger)
}

func HandleRequest(config *config.Config) LambdaFunc {
	return func(ctx context.Context, e products.ReconcileEvent) (string, error) {
		setupLogging(e)

		reconciler := config.Reconciler()
		if reconciler == nil {
			return "", fmt.Errorf("product store and image uploads must be configured")
		}

		var marked []string
		slog.Info("Reconciling product images")
		err := xray.Capture(ctx, "reconcile_product_images.handle", func(tracedCtx context.Context) error {
			xray.AddAnnotation(tracedCtx, "requested", len(e.ProductIDs))

			var err error
			marked, err = reconciler.Reconcile(tracedCtx, e.ProductIDs...)
			return err
		})

		// ids marked before a failure stay marked; the next listing retries the rest
		if err != nil {
			slog.Error("Error reconciling product images", "marked", len(marked), "error", err)
			return "", err
		}

		slog.Info("Reconciled product images", "marked", len(marked))
		return fmt.Sprintf("marked %d: %s", len(marked), strings.Join(marked, ",")), nil
	}
}
