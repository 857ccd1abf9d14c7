package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"loyaltyetl/domain/loyalty"
)

// UpdateItemAPI is the slice of the DynamoDB client the store uses
type UpdateItemAPI interface {
	UpdateItem(ctx context.Context, params *awsdynamodb.UpdateItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error)
}

// AggregateStore applies numeric deltas to the dashboard aggregates table.
// Each delta becomes a single atomic ADD update, so concurrent stream
// batches never lose increments.
type AggregateStore struct {
	client UpdateItemAPI
	table  string
	logger *zap.Logger
}

// NewAggregateStore creates a store over the aggregates table
func NewAggregateStore(client UpdateItemAPI, table string, logger *zap.Logger) *AggregateStore {
	return &AggregateStore{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Apply adds the delta's updates to the aggregate row, creating missing
// counters at zero, and refreshes the row's lastUpdated timestamp.
func (s *AggregateStore) Apply(ctx context.Context, delta loyalty.AggregateDelta) error {
	if len(delta.Updates) == 0 {
		return nil
	}

	// Stable field order keeps the generated expression deterministic
	fields := make([]string, 0, len(delta.Updates))
	for field := range delta.Updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	update := expression.Set(
		expression.Name("lastUpdated"),
		expression.Value(time.Now().UTC().Format(time.RFC3339)))
	for _, field := range fields {
		update = update.Add(expression.Name(field), expression.Value(delta.Updates[field]))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build aggregate update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &awsdynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"aggregateType": &types.AttributeValueMemberS{Value: delta.Type},
			"aggregateId":   &types.AttributeValueMemberS{Value: delta.ID},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("failed to update aggregate %s/%s: %w", delta.Type, delta.ID, err)
	}

	s.logger.Debug("Aggregate updated",
		zap.String("aggregateType", delta.Type),
		zap.String("aggregateId", delta.ID),
		zap.Int("fields", len(fields)),
	)
	return nil
}
