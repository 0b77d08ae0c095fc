package realtime

import (
	"context"

	"resto-be/internal/logger"
	"resto-be/internal/metrics"

	"go.uber.org/zap"
)

// Fanout hands each message to every publisher. Publish failures are logged
// and counted, never returned: the triggering write has already committed.
type Fanout struct {
	publishers []Publisher
	failures   *metrics.Counter
}

// NewFanout skips nil publishers; failures may be nil.
func NewFanout(failures *metrics.Counter, publishers ...Publisher) *Fanout {
	f := &Fanout{failures: failures}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

func (f *Fanout) Publish(ctx context.Context, msg Message) error {
	for _, p := range f.publishers {
		if err := p.Publish(ctx, msg); err != nil {
			if f.failures != nil {
				f.failures.Inc()
			}
			logger.FromCtx(ctx).Warn("failed to publish realtime event",
				zap.String("layer", "realtime"),
				zap.String("event", msg.Event),
				zap.String("audience", msg.Audience.Key()),
				zap.Error(err),
			)
		}
	}
	return nil
}
