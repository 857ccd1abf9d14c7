// Package main implements the Lambda handler that keeps the dashboard
// aggregates current. It consumes the source tables' DynamoDB streams and
// applies each change as an atomic numeric delta.
package main

import (
	"context"
	"log"
	"strings"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"loyaltyetl/domain/loyalty"
	"loyaltyetl/infrastructure/config"
	"loyaltyetl/infrastructure/di"
)

// Global dependencies reused across warm invocations
var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	log.Println("Aggregates updater initialized successfully")
}

// Handler applies one stream batch. Returning an error makes the stream
// source redeliver the batch.
func Handler(ctx context.Context, event awsevents.DynamoDBEvent) error {
	changes := make([]loyalty.StreamChange, 0, len(event.Records))
	for _, record := range event.Records {
		changes = append(changes, loyalty.StreamChange{
			Table: tableFromStreamARN(record.EventSourceArn),
			Event: record.EventName,
			Old:   decodeImage(record.Change.OldImage),
			New:   decodeImage(record.Change.NewImage),
		})
	}
	return container.Updater.Apply(ctx, changes)
}

// tableFromStreamARN extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:region:account:table/Name/stream/timestamp.
func tableFromStreamARN(arn string) string {
	idx := strings.Index(arn, "table/")
	if idx < 0 {
		return ""
	}
	rest := arn[idx+len("table/"):]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		return rest[:slash]
	}
	return rest
}

// decodeImage flattens a stream image to plain values. Only the scalar types
// the aggregate rules read are decoded; everything else is dropped.
func decodeImage(image map[string]awsevents.DynamoDBAttributeValue) map[string]interface{} {
	if len(image) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(image))
	for key, av := range image {
		switch av.DataType() {
		case awsevents.DataTypeString:
			out[key] = av.String()
		case awsevents.DataTypeNumber:
			out[key] = av.Number()
		case awsevents.DataTypeBoolean:
			out[key] = av.Boolean()
		}
	}
	return out
}

func main() {
	lambda.Start(Handler)
}
