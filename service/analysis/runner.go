package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/viant/reviewgate/internal/clock"
	model "github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/service/dao"
	artifactdao "github.com/viant/reviewgate/service/dao/artifact"
	detaildao "github.com/viant/reviewgate/service/dao/detail"
	"github.com/viant/reviewgate/service/dao/outcome"
	"github.com/viant/reviewgate/tracing"
)

// Runner produces one outcome and reports it to the sink. Run is idempotent:
// an outcome that is already completed or failed is only re-reported.
type Runner struct {
	provider  Provider
	artifacts artifactdao.Store
	details   detaildao.Store
	outcomes  outcome.Store
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRunner creates a runner; timeout bounds a single provider call (0 = none).
func NewRunner(provider Provider, artifacts artifactdao.Store, details detaildao.Store, outcomes outcome.Store, timeout time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{provider: provider, artifacts: artifacts, details: details, outcomes: outcomes, timeout: timeout, logger: logger}
}

// Run handles request and delivers the result to sink.
func (r *Runner) Run(ctx context.Context, request *Request, sink Sink) (err error) {
	ctx, span := tracing.StartSpan(ctx, "analysis.Run", tracing.KindConsumer)
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"artifact.id": request.ArtifactID, "outcome.id": request.OutcomeID})

	record, err := r.outcomes.Load(ctx, request.OutcomeID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			r.logger.Warn("analysis request for unknown outcome dropped", "artifact_id", request.ArtifactID, "outcome_id", request.OutcomeID)
			return nil
		}
		return fmt.Errorf("failed to load outcome %v: %w", request.OutcomeID, err)
	}
	if record.Lifecycle == model.LifecyclePending {
		if err = r.produce(ctx, request, record); err != nil {
			return err
		}
	}
	switch record.Lifecycle {
	case model.LifecycleCompleted:
		_, err = sink.ApplyAnalysisOutcome(ctx, request.ArtifactID, request.OutcomeID)
	case model.LifecycleFailed:
		_, err = sink.ApplyAnalysisFailure(ctx, request.ArtifactID, request.OutcomeID, errors.New(record.Narrative))
	default:
		err = fmt.Errorf("outcome %v left in %v", record.ID, record.Lifecycle)
	}
	return err
}

func (r *Runner) produce(ctx context.Context, request *Request, record *model.Outcome) error {
	subject, err := r.subject(ctx, request)
	if err != nil {
		return err
	}
	result, err := r.analyze(ctx, subject)
	switch {
	case err != nil:
		r.logger.Warn("analysis provider failed", "artifact_id", request.ArtifactID, "outcome_id", request.OutcomeID, "error", err)
		record.Fail(err.Error(), clock.Now())
	case result.Confidence == nil:
		record.CompleteUnscored(result.Narrative, clock.Now())
		r.logger.Debug("analysis completed without score", "artifact_id", request.ArtifactID, "outcome_id", request.OutcomeID)
	default:
		record.Complete(*result.Confidence, result.Narrative, clock.Now())
		r.logger.Debug("analysis completed", "artifact_id", request.ArtifactID, "outcome_id", request.OutcomeID, "confidence", *record.Confidence)
	}
	if err := r.outcomes.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save outcome %v: %w", record.ID, err)
	}
	return nil
}

func (r *Runner) subject(ctx context.Context, request *Request) (*Subject, error) {
	a, err := r.artifacts.Load(ctx, request.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %v: %w", request.ArtifactID, err)
	}
	records, err := r.details.List(ctx, request.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load details of %v: %w", request.ArtifactID, err)
	}
	return &Subject{ArtifactID: a.ID, OutcomeID: request.OutcomeID, Kind: a.Kind, Title: a.Title, Details: records}, nil
}

func (r *Runner) analyze(ctx context.Context, subject *Subject) (result *Result, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("provider panic: %v", p)
		}
	}()
	result, err = r.provider.Analyze(ctx, subject)
	if err == nil && result == nil {
		err = errors.New("provider returned no result")
	}
	if err == nil && result.Confidence != nil && (math.IsNaN(*result.Confidence) || math.IsInf(*result.Confidence, 0)) {
		err = fmt.Errorf("%w: %v", ErrInvalidScore, *result.Confidence)
	}
	return result, err
}
