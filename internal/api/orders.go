package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/hamperland/storefront/internal/config"
	"github.com/hamperland/storefront/internal/orders"
	"golang.org/x/exp/slog"
)

type GetOrderPathParams struct {
	ID string `json:"id"`
}

func (p GetOrderPathParams) AnnotateLogger() {
	logger := slog.Default()
	logger = logger.With("order_id", p.ID)
	slog.SetDefault(logger)
}

func getGetOrderPathParams(req events.APIGatewayProxyRequest) GetOrderPathParams {
	return GetOrderPathParams{
		ID: req.PathParameters["id"],
	}
}

func createOrder(config config.Config) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		var body orders.CreateRequest
		if err := decodeBody(req, &body); err != nil {
			slog.Info("Rejecting malformed order body", "error", err)
			return messageResponse(http.StatusBadRequest, "Invalid request body")
		}

		order, err := orders.New(body, time.Now())
		if err != nil {
			var reqErr *orders.RequestError
			if errors.As(err, &reqErr) {
				return messageResponse(http.StatusBadRequest, reqErr.Message)
			}
			slog.Error("Error creating order", "error", err)
			return internalErrorResponse(), nil
		}

		if !order.TotalsMatch() {
			slog.Warn("Declared totals do not match items", "order_id", order.OrderID,
				"total_items", order.Totals.TotalItems, "total_price", order.Totals.TotalPrice)
		}

		if err := config.OrderStore.Store(ctx, order); err != nil {
			slog.Error("Error storing order", "order_id", order.OrderID, "error", err)
			return internalErrorResponse(), nil
		}

		slog.Info("Order placed", "order_id", order.OrderID, "items", len(order.Items))
		return jsonResponse(http.StatusCreated, orders.CreateResponse{
			Message: "Order placed successfully",
			Order:   *order,
		})
	}
}

func getOrder(config config.Config) LambdaFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		params := getGetOrderPathParams(req)
		params.AnnotateLogger()

		order, err := config.OrderStore.GetItem(ctx, params.ID)
		if err != nil {
			slog.Error("Error fetching order", "error", err)
			return internalErrorResponse(), nil
		}
		if order == nil {
			return messageResponse(http.StatusNotFound, "Order not found")
		}

		return jsonResponse(http.StatusOK, order)
	}
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	return json.Unmarshal(body, v)
}
