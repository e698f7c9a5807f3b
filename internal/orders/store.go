package orders

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

func (h *Handler) Store(ctx context.Context, order *Order) error {
	marshalledItem, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("got error marshalling dynamodb item: %w", err)
	}

	_, err = h.Client.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      marshalledItem,
		TableName: h.TableName,
	})
	if err != nil {
		return fmt.Errorf("got error calling PutItem: %w", err)
	}

	return nil
}
