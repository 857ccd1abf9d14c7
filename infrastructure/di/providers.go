package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"loyaltyetl/application/aggregates"
	"loyaltyetl/application/pipeline"
	"loyaltyetl/application/ports"
	"loyaltyetl/infrastructure/config"
	dynamodbx "loyaltyetl/infrastructure/extract/dynamodb"
	"loyaltyetl/infrastructure/messaging/eventbridge"
	"loyaltyetl/infrastructure/observability"
	persistence "loyaltyetl/infrastructure/persistence/dynamodb"
	"loyaltyetl/infrastructure/stage/csvstage"
	"loyaltyetl/infrastructure/upload/s3"
	"loyaltyetl/infrastructure/warehouse/redshift"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration, instrumented for tracing when
// enabled.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideSourceReader creates the DynamoDB extractor over the configured
// source tables.
func ProvideSourceReader(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SourceReader {
	return dynamodbx.NewExtractor(client, dynamodbx.Tables{
		Users:        cfg.UserTable,
		Wallets:      cfg.WalletTable,
		Transactions: cfg.WalletTransactionTable,
		Referrals:    cfg.TierReferralTable,
		TierDetails:  cfg.TierDetailsTable,
		Leads:        cfg.LeadTable,
		Withdrawals:  cfg.WithdrawnTable,
	}, logger)
}

// ProvideStager creates the CSV stager
func ProvideStager() ports.Stager {
	return csvstage.NewStager()
}

// ProvideObjectStore creates the S3-backed object store
func ProvideObjectStore(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.ObjectStore {
	return s3.NewStore(client, cfg.Bucket, logger)
}

// ProvideCopyEmitter creates the warehouse load command emitter
func ProvideCopyEmitter(cfg *config.Config) ports.CopyEmitter {
	return redshift.NewEmitter(cfg.Bucket, cfg.RedshiftIAMRole, cfg.Schema)
}

// ProvideMetrics creates the metrics publisher
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsPublisher {
	if !cfg.EnableMetrics {
		return observability.NoopMetrics{}
	}
	return observability.NewMetrics(client, logger)
}

// ProvideEventPublisher creates the run state event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NoopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideAggregateStore creates the dashboard aggregates store
func ProvideAggregateStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.AggregateStore {
	return persistence.NewAggregateStore(client, cfg.AdminAggregatesTable, logger)
}

// ProvidePipeline wires the full pipeline
func ProvidePipeline(
	source ports.SourceReader,
	stager ports.Stager,
	store ports.ObjectStore,
	emitter ports.CopyEmitter,
	metrics ports.MetricsPublisher,
	events ports.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *pipeline.Pipeline {
	return pipeline.New(source, stager, store, emitter, metrics, events,
		pipeline.Options{ArchiveRaw: cfg.ArchiveRaw}, logger)
}

// ProvideUpdater wires the stream-fed aggregates updater
func ProvideUpdater(store ports.AggregateStore, cfg *config.Config, logger *zap.Logger) *aggregates.Updater {
	kinds := map[string]aggregates.SourceKind{
		cfg.WalletTable:       aggregates.KindWallet,
		cfg.TierReferralTable: aggregates.KindReferral,
		cfg.LeadTable:         aggregates.KindLead,
		cfg.WithdrawnTable:    aggregates.KindWithdrawal,
	}
	return aggregates.NewUpdater(store, kinds, logger)
}
