package messaging

import (
	"context"
	"testing"

	"omnichannel/application/ports"

	"github.com/stretchr/testify/assert"
)

type captureSink struct {
	messages []string
	severity []ports.Severity
}

func (c *captureSink) Notify(ctx context.Context, message string, severity ports.Severity) {
	c.messages = append(c.messages, message)
	c.severity = append(c.severity, severity)
}

func TestFanOutSink(t *testing.T) {
	t.Run("every sink receives the notification", func(t *testing.T) {
		first := &captureSink{}
		second := &captureSink{}
		sink := NewFanOutSink(first, second)

		sink.Notify(context.Background(), "hello", ports.SeverityWarn)

		assert.Equal(t, []string{"hello"}, first.messages)
		assert.Equal(t, []string{"hello"}, second.messages)
		assert.Equal(t, ports.SeverityWarn, first.severity[0])
	})

	t.Run("nil sinks are skipped", func(t *testing.T) {
		only := &captureSink{}
		sink := NewFanOutSink(nil, only, nil)

		sink.Notify(context.Background(), "hello", ports.SeverityInfo)

		assert.Len(t, sink, 1)
		assert.Equal(t, []string{"hello"}, only.messages)
	})
}
