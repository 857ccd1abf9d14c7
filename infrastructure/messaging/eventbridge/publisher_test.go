package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loyaltyetl/application/ports"
)

type fakePutEvents struct {
	inputs []*awseventbridge.PutEventsInput
	output *awseventbridge.PutEventsOutput
	err    error
}

func (f *fakePutEvents) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &awseventbridge.PutEventsOutput{}, nil
}

func TestPublishRunState_SendsEntry(t *testing.T) {
	// Arrange
	client := &fakePutEvents{}
	p := NewPublisher(client, "loyalty-events", zap.NewNop())
	event := ports.RunStateEvent{
		RunID: "run-1",
		Date:  "2025-03-15",
		State: "UPLOADED",
		Rows:  map[string]int{"dim_tier": 3},
	}

	// Act
	err := p.PublishRunState(context.Background(), event)

	// Assert
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	require.Len(t, client.inputs[0].Entries, 1)
	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "loyalty-events", *entry.EventBusName)
	assert.Equal(t, "loyalty.etl", *entry.Source)
	assert.Equal(t, "loyalty.etl.run-state", *entry.DetailType)

	var decoded ports.RunStateEvent
	require.NoError(t, json.Unmarshal([]byte(*entry.Detail), &decoded))
	assert.Equal(t, event, decoded)
}

func TestPublishRunState_FailedEntryErrors(t *testing.T) {
	client := &fakePutEvents{output: &awseventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{{
			ErrorCode:    aws.String("ThrottlingException"),
			ErrorMessage: aws.String("rate exceeded"),
		}},
	}}
	p := NewPublisher(client, "loyalty-events", zap.NewNop())

	err := p.PublishRunState(context.Background(), ports.RunStateEvent{RunID: "run-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ThrottlingException")
}

func TestPublishRunState_ClientErrorWrapped(t *testing.T) {
	p := NewPublisher(&fakePutEvents{err: errors.New("connection reset")}, "loyalty-events", zap.NewNop())

	err := p.PublishRunState(context.Background(), ports.RunStateEvent{RunID: "run-1"})

	assert.Error(t, err)
}
