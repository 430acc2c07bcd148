package messaging

import (
	"context"

	"omnichannel/application/ports"
)

// FanOutSink delivers each notification to every configured sink. Sinks are
// individually fire-and-forget, so delivery order across sinks is not
// guaranteed.
type FanOutSink []ports.NotificationSink

// NewFanOutSink composes the given sinks, skipping nils.
func NewFanOutSink(sinks ...ports.NotificationSink) FanOutSink {
	out := make(FanOutSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Notify forwards the notification to every sink.
func (f FanOutSink) Notify(ctx context.Context, message string, severity ports.Severity) {
	for _, sink := range f {
		sink.Notify(ctx, message, severity)
	}
}

var _ ports.NotificationSink = (FanOutSink)(nil)
