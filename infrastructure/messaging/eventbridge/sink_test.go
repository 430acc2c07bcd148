package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"omnichannel/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEventBridge struct {
	inputs chan *eventbridge.PutEventsInput
	err    error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs <- params
	if f.err != nil {
		return nil, f.err
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestSinkNotify(t *testing.T) {
	t.Run("publishes the notification as a bus event", func(t *testing.T) {
		fake := &fakeEventBridge{inputs: make(chan *eventbridge.PutEventsInput, 1)}
		sink := NewSink(fake, "alerts-bus", zap.NewNop())

		sink.Notify(context.Background(), "FAILOVER triggered | Operation=CreateClient | Reason=down", ports.SeverityCritical)

		var input *eventbridge.PutEventsInput
		select {
		case input = <-fake.inputs:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was never published")
		}

		require.Len(t, input.Entries, 1)
		entry := input.Entries[0]
		assert.Equal(t, "alerts-bus", aws.ToString(entry.EventBusName))
		assert.Equal(t, "omnichannel.clients", aws.ToString(entry.Source))
		assert.Equal(t, "ServiceNotification", aws.ToString(entry.DetailType))

		var detail notificationDetail
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
		assert.Equal(t, "FAILOVER triggered | Operation=CreateClient | Reason=down", detail.Message)
		assert.Equal(t, "CRITICAL", detail.Severity)
	})

	t.Run("publish failure never reaches the caller", func(t *testing.T) {
		fake := &fakeEventBridge{
			inputs: make(chan *eventbridge.PutEventsInput, 1),
			err:    errors.New("bus unavailable"),
		}
		sink := NewSink(fake, "alerts-bus", zap.NewNop())

		sink.Notify(context.Background(), "anything", ports.SeverityError)

		select {
		case <-fake.inputs:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was never attempted")
		}
	})

	t.Run("cancelled caller context does not cancel the publish", func(t *testing.T) {
		fake := &fakeEventBridge{inputs: make(chan *eventbridge.PutEventsInput, 1)}
		sink := NewSink(fake, "alerts-bus", zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sink.Notify(ctx, "still delivered", ports.SeverityWarn)

		select {
		case <-fake.inputs:
		case <-time.After(2 * time.Second):
			t.Fatal("notification was never published")
		}
	})
}
