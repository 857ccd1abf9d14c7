package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"loyaltyetl/application/ports"
)

// Event source and detail type used for run lifecycle events
const (
	eventSource    = "loyalty.etl"
	runStateDetail = "loyalty.etl.run-state"
)

// PutEventsAPI is the slice of the EventBridge client the publisher uses
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error)
}

// Publisher sends run state transitions to an EventBridge bus so downstream
// consumers (alerting, the load step's scheduler) can react without polling.
type Publisher struct {
	client       PutEventsAPI
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client PutEventsAPI, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// PublishRunState sends one run state transition
func (p *Publisher) PublishRunState(ctx context.Context, event ports.RunStateEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run state event: %w", err)
	}

	input := &awseventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(runStateDetail),
			Detail:       aws.String(string(detail)),
		}},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish run state event: %w", err)
	}
	if result.FailedEntryCount > 0 {
		entry := result.Entries[0]
		return fmt.Errorf("run state event rejected: %s (%s)",
			aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	p.logger.Debug("Run state event published",
		zap.String("runID", event.RunID),
		zap.String("state", event.State),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

// NoopPublisher drops events. Used when no event bus is configured.
type NoopPublisher struct{}

// PublishRunState implements ports.EventPublisher
func (NoopPublisher) PublishRunState(ctx context.Context, event ports.RunStateEvent) error {
	return nil
}
