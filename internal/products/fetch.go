package products

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"golang.org/x/exp/slog"
)

// List returns every product in the table. A single scan page is read and no
// ordering is guaranteed; a truncated page is reported in the logs only.
func (p *Handler) List(ctx context.Context) ([]Product, error) {
	slog.Info("Scanning products table")

	result, err := p.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: p.TableName,
	})
	if err != nil {
		slog.Error("Failed to scan products table", "error", err)
		return nil, fmt.Errorf("could not scan products: %w", err)
	}

	if len(result.LastEvaluatedKey) > 0 {
		// TODO: paginate once the catalog outgrows a single 1MB scan page.
		slog.Warn("Product scan was truncated, listing is incomplete", "returned", len(result.Items))
	}

	items := make([]Product, 0, len(result.Items))
	for _, raw := range result.Items {
		var item Product
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			slog.Error("Failed to unmarshal product", "error", err)
			return nil, fmt.Errorf("could not unmarshal product: %w", err)
		}
		items = append(items, item)
	}

	slog.Info("Scanned products table", "count", len(items))
	return items, nil
}
