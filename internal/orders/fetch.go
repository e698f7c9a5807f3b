package orders

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/exp/slog"
)

func (h *Handler) GetItem(ctx context.Context, orderID string) (*Order, error) {
	slog.Info("Getting order", "order_id", orderID)

	result, err := h.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: h.TableName,
		Key: map[string]types.AttributeValue{
			"orderId": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		slog.Error("Failed to get order", "order_id", orderID, "error", err)
		return nil, err
	}

	// an empty item means there is no such order; callers treat nil as not found
	if len(result.Item) == 0 {
		slog.Info("Order not found", "order_id", orderID)
		return nil, nil //nolint:nilnil // This is not an error, it just means there is no order.
	}

	var order Order
	if err := attributevalue.UnmarshalMap(result.Item, &order); err != nil {
		slog.Error("Failed to unmarshal order", "order_id", orderID, "error", err)
		return nil, err
	}

	return &order, nil
}
