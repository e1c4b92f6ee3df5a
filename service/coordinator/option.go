package coordinator

import (
	"log/slog"
	"time"

	"github.com/viant/reviewgate/service/gate"
	"github.com/viant/reviewgate/service/notify"
	"go.opentelemetry.io/otel/metric"
)

// Option customises the coordinator
type Option func(c *Coordinator)

// WithGate sets the analysis gate
func WithGate(g *gate.Gate) Option {
	return func(c *Coordinator) { c.gate = g }
}

// WithNotifier sets the lifecycle notifier
func WithNotifier(notifier notify.Notifier) Option {
	return func(c *Coordinator) { c.notifier = notifier }
}

// WithNotifyTimeout bounds a single notifier call; non-positive values keep the default
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.notifyTimeout = timeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMeter sets the meter used for the transition counter
func WithMeter(meter metric.Meter) Option {
	return func(c *Coordinator) { c.meter = meter }
}
