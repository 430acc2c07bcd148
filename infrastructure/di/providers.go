package di

import (
	"context"

	"omnichannel/application/ports"
	"omnichannel/infrastructure/blob"
	"omnichannel/infrastructure/config"
	"omnichannel/infrastructure/messaging"
	"omnichannel/infrastructure/messaging/eventbridge"
	dynamorepo "omnichannel/infrastructure/persistence/dynamodb"
	"omnichannel/infrastructure/persistence/failover"
	"omnichannel/infrastructure/persistence/postgres"
	ws "omnichannel/interfaces/websocket"
	"omnichannel/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PrimaryRepository and SecondaryRepository let wire distinguish the two
// concrete stores feeding the failover composition.
type PrimaryRepository ports.ClientRepository
type SecondaryRepository ports.ClientRepository

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideS3PresignClient creates an S3 presign client
func ProvideS3PresignClient(awsCfg aws.Config) *awss3.PresignClient {
	return awss3.NewPresignClient(awss3.NewFromConfig(awsCfg))
}

// ProvideGormDB opens the primary store connection and runs the schema
// migration. A down primary at boot is fatal here; at request time the
// failover layer absorbs it.
func ProvideGormDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.NewClientRepository(db, logger).Migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// ProvidePrimaryRepository creates the PostgreSQL repository
func ProvidePrimaryRepository(db *gorm.DB, logger *zap.Logger) PrimaryRepository {
	return postgres.NewClientRepository(db, logger)
}

// ProvideSecondaryRepository creates the DynamoDB repository
func ProvideSecondaryRepository(client *awsdynamodb.Client, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) SecondaryRepository {
	return dynamorepo.NewClientRepository(client, cfg.DynamoDBTable, metrics, logger)
}

// ProvideLogHub creates the live log-stream hub and starts its loop
func ProvideLogHub(logger *zap.Logger) *ws.Hub {
	hub := ws.NewHub(logger)
	go hub.Run()
	return hub
}

// ProvideLogStreamServer creates the websocket upgrade handler
func ProvideLogStreamServer(hub *ws.Hub, logger *zap.Logger) *ws.Server {
	return ws.NewServer(hub, logger)
}

// ProvideNotificationSink fans notifications out to the log stream and, when
// a bus is configured, to EventBridge
func ProvideNotificationSink(hub *ws.Hub, ebClient *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.NotificationSink {
	var busSink ports.NotificationSink
	if cfg.EventBusName != "" {
		busSink = eventbridge.NewSink(ebClient, cfg.EventBusName, logger)
	}
	return messaging.NewFanOutSink(hub, busSink)
}

// ProvideMetrics creates the metrics recorder, nil when disabled
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics(client, cfg.Environment, logger)
}

// ProvideFailoverRepository composes the two stores behind the retry and
// failover policy
func ProvideFailoverRepository(
	primary PrimaryRepository,
	secondary SecondaryRepository,
	sink ports.NotificationSink,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) ports.ClientRepository {
	policy := failover.RetryPolicy{
		Retries:   cfg.WriteRetries,
		BaseDelay: cfg.RetryBaseDelay,
	}
	return failover.NewClientRepository(primary, secondary, sink, metrics, policy, logger)
}

// ProvideUploadLinkIssuer creates the S3 presigned upload link issuer
func ProvideUploadLinkIssuer(presigner *awss3.PresignClient, cfg *config.Config, logger *zap.Logger) ports.UploadLinkIssuer {
	return blob.NewUploadLinkIssuer(presigner, cfg.UploadBucket, cfg.UploadLinkTTL, logger)
}
