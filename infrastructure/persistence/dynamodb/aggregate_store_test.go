package dynamodb

import (
	"context"
	"errors"
	"testing"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loyaltyetl/domain/loyalty"
)

type fakeUpdater struct {
	inputs []*awsdynamodb.UpdateItemInput
	err    error
}

func (f *fakeUpdater) UpdateItem(ctx context.Context, params *awsdynamodb.UpdateItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.UpdateItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &awsdynamodb.UpdateItemOutput{}, nil
}

func amount(s string) loyalty.Amount {
	return loyalty.NewAmount(decimal.RequireFromString(s))
}

func TestApply_AtomicAddPerField(t *testing.T) {
	// Arrange
	client := &fakeUpdater{}
	store := NewAggregateStore(client, "AdminAggregatesTable", zap.NewNop())
	delta := loyalty.AggregateDelta{
		Type: loyalty.AggregateGlobal,
		ID:   loyalty.AggregateGlobalStats,
		Updates: map[string]loyalty.Amount{
			"totalCoins":       amount("100"),
			"activeUsersCount": amount("1"),
		},
	}

	// Act
	err := store.Apply(context.Background(), delta)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "AdminAggregatesTable", *input.TableName)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "GLOBAL"}, input.Key["aggregateType"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "STATS"}, input.Key["aggregateId"])
	assert.Contains(t, *input.UpdateExpression, "ADD")
	assert.Contains(t, *input.UpdateExpression, "SET")

	// both counters present as numeric values
	numbers := 0
	for _, v := range input.ExpressionAttributeValues {
		if _, ok := v.(*types.AttributeValueMemberN); ok {
			numbers++
		}
	}
	assert.Equal(t, 2, numbers)
}

func TestApply_EmptyDeltaIsNoop(t *testing.T) {
	client := &fakeUpdater{}
	store := NewAggregateStore(client, "AdminAggregatesTable", zap.NewNop())

	err := store.Apply(context.Background(), loyalty.AggregateDelta{Type: "GLOBAL", ID: "STATS"})

	require.NoError(t, err)
	assert.Empty(t, client.inputs)
}

func TestApply_ClientErrorWrapped(t *testing.T) {
	store := NewAggregateStore(&fakeUpdater{err: errors.New("throughput exceeded")}, "AdminAggregatesTable", zap.NewNop())

	err := store.Apply(context.Background(), loyalty.AggregateDelta{
		Type:    loyalty.AggregateTier,
		ID:      loyalty.TierGold,
		Updates: map[string]loyalty.Amount{"coins": amount("10")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIER/Gold")
}
