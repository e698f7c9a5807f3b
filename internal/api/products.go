package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/google/uuid"
	"github.com/hamperland/storefront/internal/config"
	"github.com/hamperland/storefront/internal/products"
	"golang.org/x/exp/slog"
)

func listProducts(config config.Config) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		list, err := config.ProductStore.List(ctx)
		if err != nil {
			slog.Error("Error listing products", "error", err)
			return errorResponse(http.StatusInternalServerError, "Internal Server Error")
		}

		// products created but never confirmed uploaded are left for the
		// reconcile function; the listing itself is returned as is
		if pending := products.PendingImages(list); len(pending) > 0 {
			if err := triggerReconcileProductImages(ctx, config, pending); err != nil {
				slog.Error("Error triggering lambda", "error", err)
			}
		}

		return jsonResponse(http.StatusOK, list)
	}
}

func createProduct(config config.Config) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		var body products.CreateRequest
		if err := decodeBody(req, &body); err != nil {
			slog.Info("Rejecting malformed product body", "error", err)
			return errorResponse(http.StatusBadRequest, "Invalid request body")
		}

		price, stock, err := body.Validate()
		if err != nil {
			return errorResponse(http.StatusBadRequest, err.Error())
		}

		productID := uuid.NewString()
		upload := body.PlanUpload(productID)

		uploadURL, err := config.Images.PresignUpload(ctx, upload.Key, upload.ContentType)
		if err != nil {
			slog.Error("Error presigning image upload", "product", productID, "error", err)
			return errorResponse(http.StatusInternalServerError, "Internal Server Error")
		}

		// the record is written before any image exists; the upload is a
		// second, independent step performed by the caller
		product := products.NewProduct(productID, body, price, stock, upload, config.Images)
		if err := config.ProductStore.Store(ctx, product); err != nil {
			slog.Error("Error storing product", "product", productID, "error", err)
			return errorResponse(http.StatusInternalServerError, "Internal Server Error")
		}

		slog.Info("Product created", "product", productID, "key", upload.Key, "content_type", upload.ContentType)
		return jsonResponse(http.StatusOK, products.CreateResponse{
			Message:   "Presigned URL generated.",
			UploadURL: uploadURL,
			Product:   product,
		})
	}
}

func triggerReconcileProductImages(ctx context.Context, config config.Config, pending []products.Product) error {
	if config.LambdaClient == nil || config.ReconcileImagesFunctionName == "" {
		return nil
	}

	event := products.ReconcileEvent{ProductIDs: make([]string, len(pending))}
	for i, p := range pending {
		event.ProductIDs[i] = p.ID
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	slog.Info("Invoking reconcile product images lambda asynchronously", "pending", len(pending))
	_, err = config.LambdaClient.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(config.ReconcileImagesFunctionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("could not invoke %s: %w", config.ReconcileImagesFunctionName, err)
	}
	return nil
}
