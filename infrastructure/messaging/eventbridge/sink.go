package eventbridge

import (
	"context"
	"encoding/json"
	"time"

	"omnichannel/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const (
	eventSource     = "omnichannel.clients"
	notifyTimeout   = 5 * time.Second
	detailTypeAlert = "ServiceNotification"
)

// EventBridgeAPI is the subset of the EventBridge client used by the sink.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// notificationDetail is the event payload placed on the bus.
type notificationDetail struct {
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
}

// Sink publishes service notifications to an EventBridge bus so alerting
// rules can fan them out to pagers and queues. Publishing is fire-and-forget:
// Notify returns immediately and failures only surface in the log.
type Sink struct {
	client       EventBridgeAPI
	eventBusName string
	logger       *zap.Logger
}

// NewSink creates an EventBridge-backed notification sink.
func NewSink(client EventBridgeAPI, eventBusName string, logger *zap.Logger) *Sink {
	return &Sink{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Notify publishes the notification asynchronously. The caller's context is
// not used for the publish so an already-failed request cannot cancel its own
// alert.
func (s *Sink) Notify(ctx context.Context, message string, severity ports.Severity) {
	go s.publish(message, severity)
}

func (s *Sink) publish(message string, severity ports.Severity) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	now := time.Now().UTC()
	detail, err := json.Marshal(notificationDetail{
		Message:   message,
		Severity:  string(severity),
		Timestamp: now.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("failed to marshal notification", zap.Error(err))
		return
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(s.eventBusName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(detailTypeAlert),
				Detail:       aws.String(string(detail)),
				Time:         aws.Time(now),
			},
		},
	}

	result, err := s.client.PutEvents(ctx, input)
	if err != nil {
		s.logger.Error("failed to publish notification",
			zap.Error(err),
			zap.String("severity", string(severity)),
		)
		return
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				s.logger.Error("notification entry rejected",
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return
	}

	s.logger.Debug("notification published",
		zap.String("eventBus", s.eventBusName),
		zap.String("severity", string(severity)),
	)
}

var _ ports.NotificationSink = (*Sink)(nil)
