package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricNamespace groups all pipeline metrics in CloudWatch
const MetricNamespace = "LoyaltyETL"

// PutMetricDataAPI is the slice of the CloudWatch client the publisher uses
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes pipeline counters and timings to CloudWatch. Publishing
// is best-effort: a failed put is logged and dropped, never surfaced to the
// pipeline.
type Metrics struct {
	client PutMetricDataAPI
	logger *zap.Logger
}

// NewMetrics creates a CloudWatch metrics publisher
func NewMetrics(client PutMetricDataAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		client: client,
		logger: logger,
	}
}

// Count publishes a counter value
func (m *Metrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.put(ctx, name, value, types.StandardUnitCount, dimensions)
}

// Duration publishes a timing in milliseconds
func (m *Metrics) Duration(ctx context.Context, name string, d time.Duration, dimensions map[string]string) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for k, v := range dimensions {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(MetricNamespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		m.logger.Warn("Metric publish failed",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
}

// NoopMetrics drops all metrics. Used when metrics are disabled.
type NoopMetrics struct{}

// Count implements ports.MetricsPublisher
func (NoopMetrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) {
}

// Duration implements ports.MetricsPublisher
func (NoopMetrics) Duration(ctx context.Context, name string, d time.Duration, dimensions map[string]string) {
}
