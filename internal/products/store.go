package products

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func (p *Handler) Store(ctx context.Context, product Product) error {
	marshalledItem, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("got error marshalling dynamodb item: %w", err)
	}

	_, err = p.Client.PutItem(ctx, &dynamodb.PutItemInput{
		Item:      marshalledItem,
		TableName: p.TableName,
	})
	if err != nil {
		return fmt.Errorf("got error calling PutItem: %w", err)
	}

	return nil
}

// MarkImageUploaded flags the product's image as present in object storage.
// The update never creates a record for an unknown product id.
func (p *Handler) MarkImageUploaded(ctx context.Context, productID string) error {
	_, err := p.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: p.TableName,
		Key: map[string]types.AttributeValue{
			"productId": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    aws.String("SET imageUploaded = :uploaded"),
		ConditionExpression: aws.String("attribute_exists(productId)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uploaded": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return fmt.Errorf("got error calling UpdateItem: %w", err)
	}
	return nil
}
