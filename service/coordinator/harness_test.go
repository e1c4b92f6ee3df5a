package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/internal/clock"
	"github.com/viant/reviewgate/internal/logging"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/reviewgate/service/coordinator"
	amemory "github.com/viant/reviewgate/service/dao/artifact/memory"
	dmemory "github.com/viant/reviewgate/service/dao/detail/memory"
	"github.com/viant/reviewgate/service/dao/outcome"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/gate"
	"github.com/viant/reviewgate/service/notify"
)

// manualScheduler records requests; tests deliver outcomes themselves.
type manualScheduler struct {
	mu       sync.Mutex
	requests []*analysis.Request
	err      error
}

func (s *manualScheduler) Start(context.Context, analysis.Sink) error { return nil }

func (s *manualScheduler) Schedule(_ context.Context, request *analysis.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, request)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []*event.Lifecycle
}

func (r *recorder) Emit(_ context.Context, e *event.Lifecycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []event.Kind
	for _, e := range r.events {
		ret = append(ret, e.Kind)
	}
	return ret
}

func (r *recorder) count(kind event.Kind) int {
	count := 0
	for _, k := range r.kinds() {
		if k == kind {
			count++
		}
	}
	return count
}

func (r *recorder) last() *event.Lifecycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type harness struct {
	*coordinator.Coordinator
	artifacts *amemory.Store
	details   *dmemory.Store
	outcomes  outcome.Store
	scheduler *manualScheduler
	events    *recorder
}

type setup struct {
	provider  analysis.Provider
	notifier  notify.Notifier
	threshold float64
}

func newHarness(t *testing.T, s setup) *harness {
	t.Helper()
	h := &harness{
		artifacts: amemory.New(),
		details:   dmemory.New(),
		outcomes:  outcome.NewMemory(),
		scheduler: &manualScheduler{},
		events:    &recorder{},
	}
	var scheduler analysis.Scheduler = h.scheduler
	if s.provider != nil {
		runner := analysis.NewRunner(s.provider, h.artifacts, h.details, h.outcomes, 0, logging.Discard())
		scheduler = analysis.NewInline(runner)
	}
	if s.threshold == 0 {
		s.threshold = gate.DefaultThreshold
	}
	g, err := gate.New(s.threshold)
	require.NoError(t, err)
	notifier := notify.Notifier(h.events)
	if s.notifier != nil {
		notifier = notify.Multi{s.notifier, h.events}
	}
	c, err := coordinator.New(h.artifacts, h.details, h.outcomes, scheduler,
		coordinator.WithGate(g),
		coordinator.WithNotifier(notifier),
		coordinator.WithLogger(logging.Discard()),
	)
	require.NoError(t, err)
	require.NoError(t, scheduler.Start(context.Background(), c))
	h.Coordinator = c
	return h
}

func weeklyReport(owner string, tiers int) *coordinator.Draft {
	return &coordinator.Draft{
		Kind:        artifact.KindWeeklyReport,
		Title:       "Week 42",
		OwnerID:     owner,
		ReviewTiers: tiers,
		Details: []*detail.Record{
			{Kind: detail.KindTask, Title: "Ship billing export", Body: "Exports delivered to finance"},
			{Kind: detail.KindTask, Title: "Fix flaky login test"},
		},
	}
}

func (h *harness) create(t *testing.T, tiers int) *artifact.Artifact {
	t.Helper()
	a, err := h.Create(context.Background(), weeklyReport("owner-1", tiers))
	require.NoError(t, err)
	return a
}

// complete stores a completed score for the outcome, as a provider would
func (h *harness) complete(t *testing.T, outcomeID string, confidence float64, narrative string) {
	t.Helper()
	record, err := h.outcomes.Load(context.Background(), outcomeID)
	require.NoError(t, err)
	record.Complete(confidence, narrative, clock.Now())
	require.NoError(t, h.outcomes.Save(context.Background(), record))
}

// atGate creates and submits an artifact with the manual scheduler
func (h *harness) atGate(t *testing.T, tiers int) *artifact.Artifact {
	t.Helper()
	a := h.create(t, tiers)
	submitted, err := h.Submit(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)
	require.Equal(t, artifact.StateGatePending, submitted.State)
	return submitted
}

func fixed(confidence float64, narrative string) analysis.Provider {
	return analysis.ProviderFunc(func(context.Context, *analysis.Subject) (*analysis.Result, error) {
		return &analysis.Result{Confidence: analysis.Score(confidence), Narrative: narrative}, nil
	})
}

func unscored(narrative string) analysis.Provider {
	return analysis.ProviderFunc(func(context.Context, *analysis.Subject) (*analysis.Result, error) {
		return &analysis.Result{Narrative: narrative}, nil
	})
}

func failing(message string) analysis.Provider {
	return analysis.ProviderFunc(func(context.Context, *analysis.Subject) (*analysis.Result, error) {
		return nil, errors.New(message)
	})
}
