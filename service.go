package reviewgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/reviewgate/internal/logging"
	"github.com/viant/reviewgate/progress"
	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/reviewgate/service/analysis/heuristic"
	"github.com/viant/reviewgate/service/analysis/remote"
	"github.com/viant/reviewgate/service/approval"
	"github.com/viant/reviewgate/service/coordinator"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	amemory "github.com/viant/reviewgate/service/dao/artifact/memory"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
	dmemory "github.com/viant/reviewgate/service/dao/detail/memory"
	"github.com/viant/reviewgate/service/dao/outcome"
	"github.com/viant/reviewgate/service/dao/sqlstore"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/gate"
	"github.com/viant/reviewgate/service/lock"
	lmemory "github.com/viant/reviewgate/service/lock/memory"
	"github.com/viant/reviewgate/service/lock/redis"
	"github.com/viant/reviewgate/service/messaging/queue"
	"github.com/viant/reviewgate/service/notify"
	"github.com/viant/reviewgate/tracing"
	"go.opentelemetry.io/otel/metric"
)

const (
	analysisQueue = "analysis"
	eventQueue    = "events"
)

// Service wires stores, analysis and notification around the coordinator
type Service struct {
	config       *Config
	fs           afs.Service
	logger       *slog.Logger
	meter        metric.Meter
	provider     analysis.Provider
	scheduler    analysis.Scheduler
	dispatcher   *analysis.Dispatcher
	notifiers    []notify.Notifier
	eventHandler event.Handler
	listener     *event.Listener
	artifacts    artifactdao.Store
	details      detaildao.Store
	outcomes     outcome.Store
	locker       lock.Locker
	coordinator  *coordinator.Coordinator
	approval     *approval.Service
	progress     *progress.Progress
	closers      []func(ctx context.Context) error

	mu      sync.Mutex
	started bool
}

// New builds the service. Resources opened here are released by Shutdown.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(ctx); err != nil {
		_ = ret.close(context.WithoutCancel(ctx))
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.logger == nil {
		s.logger = logging.New("reviewgate")
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.Service, s.config.Tracing.Version, s.config.Tracing.OutputFile); err != nil {
			return err
		}
		s.closers = append(s.closers, tracing.Shutdown)
	}
	s.initLocker()
	if err := s.initStores(ctx); err != nil {
		return err
	}
	if err := s.initAnalysis(); err != nil {
		return err
	}
	s.progress = progress.New()
	s.notifiers = append(s.notifiers, s.progress)
	if err := s.initNotifiers(); err != nil {
		return err
	}
	aGate, err := gate.New(s.config.Gate.Threshold)
	if err != nil {
		return err
	}
	options := []coordinator.Option{
		coordinator.WithGate(aGate),
		coordinator.WithNotifier(notify.Multi(s.notifiers)),
		coordinator.WithNotifyTimeout(s.config.Notify.Timeout),
		coordinator.WithLogger(s.logger.With("component", "coordinator")),
	}
	if s.meter != nil {
		options = append(options, coordinator.WithMeter(s.meter))
	}
	if s.coordinator, err = coordinator.New(s.artifacts, s.details, s.outcomes, s.scheduler, options...); err != nil {
		return err
	}
	s.approval = approval.New(s.coordinator)
	return nil
}

func (s *Service) initLocker() {
	if s.locker != nil {
		return
	}
	if s.config.Lock.Vendor == lock.VendorRedis {
		locker := redis.New(s.config.Lock.Redis)
		s.closers = append(s.closers, func(context.Context) error { return locker.Close() })
		s.locker = locker
		return
	}
	s.locker = lmemory.New()
}

func (s *Service) initStores(ctx context.Context) error {
	if s.artifacts == nil {
		switch s.config.Store.Driver {
		case StoreSQLite, StorePostgres:
			db, dialect, err := sqlstore.Open(ctx, s.config.Store.Driver, s.config.Store.DSN)
			if err != nil {
				return err
			}
			s.closers = append(s.closers, func(context.Context) error { return db.Close() })
			s.artifacts = sqlstore.NewArtifactStore(db, dialect, sqlstore.WithLocker(s.locker))
			if s.details == nil {
				s.details = sqlstore.NewDetailStore(db, dialect)
			}
			if s.outcomes == nil {
				s.outcomes = sqlstore.NewOutcomeStore(db, dialect)
			}
		default:
			s.artifacts = amemory.New(amemory.WithLocker(s.locker))
		}
	}
	if s.details == nil {
		s.details = dmemory.New()
	}
	if s.outcomes == nil {
		s.outcomes = outcome.NewMemory()
	}
	return nil
}

func (s *Service) initAnalysis() error {
	cfg := s.config.Analysis
	if s.provider == nil {
		switch cfg.Provider {
		case ProviderRemote:
			provider, err := remote.New(cfg.Remote)
			if err != nil {
				return err
			}
			s.provider = provider
		default:
			s.provider = heuristic.New(cfg.Heuristic)
		}
	}
	if s.scheduler != nil {
		return nil
	}
	runner := analysis.NewRunner(s.provider, s.artifacts, s.details, s.outcomes, cfg.Timeout, s.logger.With("component", "analysis"))
	if cfg.Mode == ModeInline {
		s.scheduler = analysis.NewInline(runner)
		return nil
	}
	requests, err := queue.New[analysis.Request](s.config.Queue, analysisQueue, s.fs)
	if err != nil {
		return err
	}
	s.dispatcher = analysis.NewDispatcher(requests, runner, cfg.Workers, s.logger.With("component", "dispatcher"))
	s.scheduler = s.dispatcher
	return nil
}

func (s *Service) initNotifiers() error {
	if s.config.Notify.Log {
		s.notifiers = append(s.notifiers, notify.NewLog(s.logger.With("component", "notify"), slog.LevelInfo))
	}
	if !s.config.Notify.Events && s.eventHandler == nil {
		return nil
	}
	events, err := queue.New[event.Lifecycle](s.config.Queue, eventQueue, s.fs)
	if err != nil {
		return err
	}
	s.notifiers = append(s.notifiers, notify.NewQueue(event.NewPublisher(events)))
	handler := s.eventHandler
	if handler == nil {
		logger := s.logger.With("component", "events")
		handler = func(ctx context.Context, e *event.Lifecycle) error {
			logger.DebugContext(ctx, "lifecycle event consumed", "kind", e.Kind, "artifact_id", e.ArtifactID, "state", e.To)
			return nil
		}
	}
	s.listener = event.NewListener(events, handler, s.logger.With("component", "events"))
	return nil
}

// Start binds the analysis scheduler to the coordinator and starts the
// dispatcher and event listener. It must be called before Submit.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	artifacts, err := s.coordinator.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed progress: %w", err)
	}
	s.progress.Seed(artifacts)
	if err = s.scheduler.Start(ctx, s.coordinator); err != nil {
		return err
	}
	if s.listener != nil {
		s.listener.Start(ctx)
	}
	s.started = true
	return nil
}

// Shutdown drains analysis workers, stops the listener and releases resources.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.dispatcher != nil {
		if err := s.dispatcher.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		s.listener.Stop()
	}
	s.started = false
	errs = append(errs, s.close(ctx))
	return errors.Join(errs...)
}

func (s *Service) close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Coordinator returns the status coordinator
func (s *Service) Coordinator() *coordinator.Coordinator { return s.coordinator }

// Approval returns the review desk
func (s *Service) Approval() *approval.Service { return s.approval }

// Progress returns the live per-state counters
func (s *Service) Progress() *progress.Progress { return s.progress }

// Config returns the effective configuration
func (s *Service) Config() *Config { return s.config }
