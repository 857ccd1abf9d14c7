// Package main implements the Lambda handler for the scheduled loyalty
// warehouse sync. The schedule's event detail may carry a sync request; an
// empty detail means a full sync for today.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"loyaltyetl/application/pipeline"
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

	log.Println("Loyalty sync handler initialized successfully")
}

// SyncSummary is the handler's response payload
type SyncSummary struct {
	RunID    string         `json:"runId"`
	Date     string         `json:"date"`
	State    string         `json:"state"`
	Uploaded []string       `json:"uploaded"`
	Failed   []string       `json:"failed,omitempty"`
	Rows     map[string]int `json:"rows"`
}

// Handler runs one pipeline pass per scheduled event
func Handler(ctx context.Context, event awsevents.CloudWatchEvent) (SyncSummary, error) {
	var req pipeline.SyncRequest
	if len(event.Detail) > 0 {
		if err := json.Unmarshal(event.Detail, &req); err != nil {
			container.Logger.Warn("Unparseable event detail, defaulting to full sync",
				zap.Error(err),
			)
			req = pipeline.SyncRequest{}
		}
	}
	if req.Trigger == "" {
		req.Trigger = "schedule"
	}

	run, runErr := container.Pipeline.Execute(ctx, req)
	if run == nil {
		return SyncSummary{}, runErr
	}

	summary := SyncSummary{
		RunID:    run.ID,
		Date:     run.Date.Format("2006-01-02"),
		State:    string(run.State),
		Uploaded: run.UploadedTables(),
		Failed:   run.FailedTables(),
		Rows:     run.RowCounts(),
	}

	// A non-nil error makes the scheduler retry the whole date, which is
	// safe: partitions are last-write-wins.
	if runErr != nil {
		return summary, fmt.Errorf("sync run %s: %w", run.ID, runErr)
	}
	return summary, nil
}

func main() {
	lambda.Start(Handler)
}
