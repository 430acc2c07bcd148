package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

const metricNamespace = "Omnichannel/Clients"

// CloudWatchAPI is the subset of the CloudWatch client used by Metrics.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes operational counters to CloudWatch. Every method is
// best-effort: publish failures are logged and swallowed, and a nil receiver
// is a no-op so callers never need to guard.
type Metrics struct {
	client      CloudWatchAPI
	logger      *zap.Logger
	environment string
}

// NewMetrics builds a CloudWatch-backed recorder. Pass a nil *Metrics to
// consumers to disable recording entirely.
func NewMetrics(client CloudWatchAPI, environment string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:      client,
		logger:      logger,
		environment: environment,
	}
}

// CountFailover records one failover of the given operation to the secondary
// store.
func (m *Metrics) CountFailover(operation string) {
	m.count("FailoverTriggered", operation)
}

// CountRetry records one retry of the given operation against the primary
// store.
func (m *Metrics) CountRetry(operation string) {
	m.count("PrimaryRetry", operation)
}

// CountAllocationConflict records one lost identifier allocation race.
func (m *Metrics) CountAllocationConflict() {
	m.count("IdAllocationConflict", "CreateClient")
}

func (m *Metrics) count(name, operation string) {
	if m == nil || m.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(metricNamespace),
			MetricData: []cwtypes.MetricDatum{
				{
					MetricName: aws.String(name),
					Value:      aws.Float64(1),
					Unit:       cwtypes.StandardUnitCount,
					Timestamp:  aws.Time(time.Now().UTC()),
					Dimensions: []cwtypes.Dimension{
						{Name: aws.String("Operation"), Value: aws.String(operation)},
						{Name: aws.String("Environment"), Value: aws.String(m.environment)},
					},
				},
			},
		})
		if err != nil && m.logger != nil {
			m.logger.Debug("metric publish failed",
				zap.String("metric", name),
				zap.Error(err),
			)
		}
	}()
}
