package orders

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client used by the orders table.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type Handler struct {
	TableName *string
	Client    DynamoAPI
}

func NewHandler(awsConfig aws.Config, tableName string) *Handler {
	return NewHandlerWithClient(dynamodb.NewFromConfig(awsConfig), tableName)
}

func NewHandlerWithClient(client DynamoAPI, tableName string) *Handler {
	return &Handler{
		TableName: aws.String(tableName),
		Client:    client,
	}
}
