package di

import (
	"context"

	"go.uber.org/zap"

	"loyaltyetl/application/aggregates"
	"loyaltyetl/application/pipeline"
	"loyaltyetl/infrastructure/config"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline
	Updater  *aggregates.Updater
}

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	s3Client := ProvideS3Client(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	source := ProvideSourceReader(dynamoClient, cfg, logger)
	stager := ProvideStager()
	store := ProvideObjectStore(s3Client, cfg, logger)
	emitter := ProvideCopyEmitter(cfg)
	metrics := ProvideMetrics(cloudWatchClient, cfg, logger)
	events := ProvideEventPublisher(eventBridgeClient, cfg, logger)

	aggregateStore := ProvideAggregateStore(dynamoClient, cfg, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Pipeline: ProvidePipeline(source, stager, store, emitter, metrics, events, cfg, logger),
		Updater:  ProvideUpdater(aggregateStore, cfg, logger),
	}, nil
}

// Shutdown flushes buffered telemetry
func (c *Container) Shutdown() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
