// Package main is a command-line runner for the loyalty warehouse sync,
// used for backfills and ad-hoc runs outside the schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"loyaltyetl/application/pipeline"
	"loyaltyetl/infrastructure/config"
	"loyaltyetl/infrastructure/di"
)

func main() {
	date := flag.String("date", "", "run date as YYYY-MM-DD (default today)")
	incremental := flag.Bool("incremental", false, "only extract fact records created on the run date")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}
	defer container.Shutdown()

	req := pipeline.SyncRequest{
		Trigger: "cli",
		Date:    *date,
	}
	if *incremental {
		req.Action = pipeline.ActionIncremental
	}

	run, runErr := container.Pipeline.Execute(context.Background(), req)
	if run == nil {
		container.Logger.Error("Run did not start", zap.Error(runErr))
		os.Exit(1)
	}

	fmt.Printf("run %s finished in state %s\n", run.ID, run.State)
	for _, table := range run.UploadedTables() {
		fmt.Printf("  uploaded %-28s %6d rows\n", table, run.Tables[table].Staged)
	}
	for _, table := range run.FailedTables() {
		fmt.Printf("  FAILED   %-28s %v\n", table, run.Tables[table].Err)
	}

	if runErr != nil {
		container.Logger.Error("Run failed", zap.String("runID", run.ID), zap.Error(runErr))
		os.Exit(1)
	}
}
