package products

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoAPI is the subset of the DynamoDB client used by the products table.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
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
