package reviewgate

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/reviewgate/service/analysis"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
	"github.com/viant/reviewgate/service/dao/outcome"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/lock"
	"github.com/viant/reviewgate/service/notify"
	"github.com/viant/reviewgate/tracing"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service
type Option func(s *Service)

// WithConfig replaces the default configuration
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithProvider sets the analysis provider, overriding analysis.provider
func WithProvider(provider analysis.Provider) Option {
	return func(s *Service) { s.provider = provider }
}

// WithScheduler sets the analysis scheduler, overriding analysis.mode
func WithScheduler(scheduler analysis.Scheduler) Option {
	return func(s *Service) { s.scheduler = scheduler }
}

// WithNotifier adds a lifecycle notifier next to the configured ones
func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, notifier) }
}

// WithEventHandler consumes lifecycle events published on the events queue;
// it turns notify.events on.
func WithEventHandler(handler event.Handler) Option {
	return func(s *Service) { s.eventHandler = handler }
}

// WithArtifactStore sets the artifact store, overriding store.driver
func WithArtifactStore(store artifactdao.Store) Option {
	return func(s *Service) { s.artifacts = store }
}

// WithDetailStore sets the detail store
func WithDetailStore(store detaildao.Store) Option {
	return func(s *Service) { s.details = store }
}

// WithOutcomeStore sets the outcome store
func WithOutcomeStore(store outcome.Store) Option {
	return func(s *Service) { s.outcomes = store }
}

// WithLocker sets the locker used by stores without row locks, overriding lock.vendor
func WithLocker(locker lock.Locker) Option {
	return func(s *Service) { s.locker = locker }
}

// WithFileSystem sets the afs service used by fs queues and config loading
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMeter sets the meter for coordinator metrics
func WithMeter(meter metric.Meter) Option {
	return func(s *Service) { s.meter = meter }
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. The first
// successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
