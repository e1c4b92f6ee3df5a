package coordinator_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	model "github.com/viant/reviewgate/model/analysis"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/coordinator"
	"github.com/viant/reviewgate/service/completeness"
	"github.com/viant/reviewgate/service/dao"
	"github.com/viant/reviewgate/service/event"
	"github.com/viant/reviewgate/service/notify"
)

func TestCoordinator_GateScenarios(t *testing.T) {
	type testCase struct {
		description string
		setup       setup
		expect      artifact.State
		reason      []string
		lifecycle   model.Lifecycle
	}
	for _, tc := range []testCase{
		{
			description: "confidence above threshold",
			setup:       setup{provider: fixed(0.82, "solid")},
			expect:      artifact.StateTier1Pending,
			lifecycle:   model.LifecycleCompleted,
		},
		{
			description: "confidence at threshold",
			setup:       setup{provider: fixed(0.70, "borderline")},
			expect:      artifact.StateTier1Pending,
			lifecycle:   model.LifecycleCompleted,
		},
		{
			description: "confidence below threshold",
			setup:       setup{provider: fixed(0.40, "missing metrics")},
			expect:      artifact.StateRejected,
			reason:      []string{"40", "70", "missing metrics"},
			lifecycle:   model.LifecycleCompleted,
		},
		{
			description: "nan confidence",
			setup:       setup{provider: fixed(math.NaN(), "broken scorer")},
			expect:      artifact.StateRejected,
			reason:      []string{"analysis provider failure", "non-finite confidence"},
			lifecycle:   model.LifecycleFailed,
		},
		{
			description: "no confidence",
			setup:       setup{provider: unscored("model refused to score")},
			expect:      artifact.StateRejected,
			reason:      []string{"no confidence score"},
			lifecycle:   model.LifecycleCompleted,
		},
		{
			description: "provider failure",
			setup:       setup{provider: failing("model overloaded")},
			expect:      artifact.StateRejected,
			reason:      []string{"analysis provider failure", "model overloaded"},
			lifecycle:   model.LifecycleFailed,
		},
	} {
		t.Run(tc.description, func(t *testing.T) {
			h := newHarness(t, tc.setup)
			a := h.create(t, 1)

			submitted, err := h.Submit(context.Background(), a.ID, "owner-1")
			require.NoError(t, err)
			assert.Equal(t, tc.expect, submitted.State)
			assert.Equal(t, submitted.State == artifact.StateRejected, submitted.RejectionReason != nil)
			for _, fragment := range tc.reason {
				assert.Contains(t, submitted.Reason(), fragment)
			}
			if len(tc.reason) > 0 {
				assert.Equal(t, artifact.TierGate, submitted.RejectingTier)
			}
			record, err := h.outcomes.Load(context.Background(), submitted.LatestOutcomeID)
			require.NoError(t, err)
			assert.Equal(t, tc.lifecycle, record.Lifecycle)
			assert.NotNil(t, submitted.SubmittedAt)
		})
	}
}

func TestCoordinator_SchedulingFailureRejects(t *testing.T) {
	h := newHarness(t, setup{})
	h.scheduler.err = errors.New("queue full")
	a := h.create(t, 1)

	submitted, err := h.Submit(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, artifact.StateRejected, submitted.State)
	assert.Equal(t, "analysis provider failure: queue full", submitted.Reason())

	record, err := h.outcomes.Load(context.Background(), submitted.LatestOutcomeID)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleFailed, record.Lifecycle)
	assert.Equal(t, []event.Kind{event.KindCreated, event.KindSubmitted, event.KindGateRejected}, h.events.kinds())
	assert.Equal(t, "true", h.events.last().Extra["failure"])
}

func TestCoordinator_SubmitRequiresCompleteness(t *testing.T) {
	h := newHarness(t, setup{})
	draft := weeklyReport("owner-1", 1)
	draft.Details = []*detail.Record{{Kind: detail.KindPhase, Title: "wrong kind"}}
	a, err := h.Create(context.Background(), draft)
	require.NoError(t, err)

	_, err = h.Submit(context.Background(), a.ID, "owner-1")
	assert.ErrorIs(t, err, completeness.ErrIncomplete)
	_, err = h.ForceSubmit(context.Background(), a.ID, "owner-1")
	assert.ErrorIs(t, err, completeness.ErrIncomplete)

	stored, err := h.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateDraft, stored.State)
	assert.Empty(t, h.scheduler.requests)
}

func TestCoordinator_SubmitInvalidState(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.atGate(t, 1)

	_, err := h.Submit(context.Background(), a.ID, "owner-1")
	assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)
	var tErr *artifact.TransitionError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, artifact.StateGatePending, tErr.From)

	_, err = h.Submit(context.Background(), "missing", "owner-1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestCoordinator_SubmitStateCheckedBeforeCompleteness(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.atGate(t, 1)
	require.NoError(t, h.details.Replace(context.Background(), a.ID, []*detail.Record{{Kind: detail.KindPhase, Title: "wrong kind"}}))

	_, err := h.Submit(context.Background(), a.ID, "owner-1")
	assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)
	assert.False(t, errors.Is(err, completeness.ErrIncomplete))
	_, err = h.ForceSubmit(context.Background(), a.ID, "owner-1")
	assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)

	stored, err := h.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateGatePending, stored.State)
}

func TestCoordinator_ForceSubmit(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.create(t, 1)

	forced, err := h.ForceSubmit(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, artifact.StateTier1Pending, forced.State)
	assert.Empty(t, forced.LatestOutcomeID)
	assert.Empty(t, h.scheduler.requests)

	rejected, err := h.HumanReject(context.Background(), a.ID, "lead", artifact.TierOne, "numbers missing")
	require.NoError(t, err)
	assert.Equal(t, artifact.TierOne, rejected.RejectingTier)

	forced, err = h.ForceSubmit(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, artifact.StateTier1Pending, forced.State)
	assert.Nil(t, forced.RejectionReason)
	assert.Empty(t, forced.RejectingTier)
}

func TestCoordinator_HumanReview(t *testing.T) {
	t.Run("single tier", func(t *testing.T) {
		h := newHarness(t, setup{provider: fixed(0.9, "")})
		a := h.create(t, 1)
		_, err := h.Submit(context.Background(), a.ID, "owner-1")
		require.NoError(t, err)

		approved, err := h.HumanApprove(context.Background(), a.ID, "lead", artifact.TierOne)
		require.NoError(t, err)
		assert.Equal(t, artifact.StateApproved, approved.State)
		assert.Equal(t, "lead", approved.Tier1ReviewerID)
		assert.Equal(t, event.KindApproved, h.events.last().Kind)

		_, err = h.HumanApprove(context.Background(), a.ID, "director", artifact.TierTwo)
		assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)
	})

	t.Run("two tier", func(t *testing.T) {
		h := newHarness(t, setup{provider: fixed(0.9, "")})
		a := h.create(t, 2)
		_, err := h.Submit(context.Background(), a.ID, "owner-1")
		require.NoError(t, err)

		_, err = h.HumanApprove(context.Background(), a.ID, "director", artifact.TierTwo)
		assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)

		advanced, err := h.HumanApprove(context.Background(), a.ID, "lead", artifact.TierOne)
		require.NoError(t, err)
		assert.Equal(t, artifact.StateTier2Pending, advanced.State)
		assert.Equal(t, event.KindAdvanced, h.events.last().Kind)

		approved, err := h.HumanApprove(context.Background(), a.ID, "director", artifact.TierTwo)
		require.NoError(t, err)
		assert.Equal(t, artifact.StateApproved, approved.State)
		assert.Equal(t, "lead", approved.Tier1ReviewerID)
		assert.Equal(t, "director", approved.Tier2ReviewerID)
	})

	t.Run("tier two rejection", func(t *testing.T) {
		h := newHarness(t, setup{provider: fixed(0.9, "")})
		a := h.create(t, 2)
		_, err := h.Submit(context.Background(), a.ID, "owner-1")
		require.NoError(t, err)
		_, err = h.HumanApprove(context.Background(), a.ID, "lead", artifact.TierOne)
		require.NoError(t, err)

		rejected, err := h.HumanReject(context.Background(), a.ID, "director", artifact.TierTwo, "  budget unclear ")
		require.NoError(t, err)
		assert.Equal(t, artifact.StateRejected, rejected.State)
		assert.Equal(t, artifact.TierTwo, rejected.RejectingTier)
		assert.Equal(t, "budget unclear", rejected.Reason())
		assert.Equal(t, "director", h.events.last().ActorID)
	})
}

func TestCoordinator_ApplyAnalysisOutcomeIdempotent(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.atGate(t, 1)
	h.complete(t, a.LatestOutcomeID, 0.95, "")

	first, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, a.LatestOutcomeID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateTier1Pending, first.State)

	second, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, a.LatestOutcomeID)
	require.NoError(t, err)
	assert.EqualValues(t, first, second)
	assert.Equal(t, 1, h.events.count(event.KindGateApproved))
	assert.Equal(t, "0.95", h.events.last().Extra["confidence"])

	again, err := h.ApplyAnalysisFailure(context.Background(), a.ID, a.LatestOutcomeID, errors.New("late"))
	require.NoError(t, err)
	assert.Equal(t, artifact.StateTier1Pending, again.State)
}

func TestCoordinator_ApplyAnalysisOutcomeNotCompleted(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.atGate(t, 1)

	rejected, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, a.LatestOutcomeID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateRejected, rejected.State)
	assert.Equal(t, "analysis did not complete: pending", rejected.Reason())

	_, err = h.ApplyAnalysisOutcome(context.Background(), "missing", "o1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestCoordinator_StaleOutcomeIgnored(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.atGate(t, 1)
	staleID := a.LatestOutcomeID
	h.complete(t, staleID, 0.2, "weak")
	rejected, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, staleID)
	require.NoError(t, err)
	require.Equal(t, artifact.StateRejected, rejected.State)

	resubmitted, err := h.Resubmit(context.Background(), a.ID, "owner-1", nil)
	require.NoError(t, err)
	require.Equal(t, artifact.StateGatePending, resubmitted.State)
	require.NotEqual(t, staleID, resubmitted.LatestOutcomeID)

	h.complete(t, resubmitted.LatestOutcomeID, 0.9, "")
	h.events.events = nil
	current, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, staleID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateGatePending, current.State)
	current, err = h.ApplyAnalysisFailure(context.Background(), a.ID, staleID, errors.New("late failure"))
	require.NoError(t, err)
	assert.Equal(t, artifact.StateGatePending, current.State)
	assert.Empty(t, h.events.kinds())

	approved, err := h.ApplyAnalysisOutcome(context.Background(), a.ID, resubmitted.LatestOutcomeID)
	require.NoError(t, err)
	assert.Equal(t, artifact.StateTier1Pending, approved.State)
}

func TestCoordinator_Resubmit(t *testing.T) {
	t.Run("approved artifact reopens with new content", func(t *testing.T) {
		h := newHarness(t, setup{provider: fixed(0.9, "")})
		a := h.create(t, 1)
		_, err := h.Submit(context.Background(), a.ID, "owner-1")
		require.NoError(t, err)
		_, err = h.HumanApprove(context.Background(), a.ID, "lead", artifact.TierOne)
		require.NoError(t, err)

		resubmitted, err := h.Resubmit(context.Background(), a.ID, "owner-1", &coordinator.Revision{
			Title:   "Week 42 (amended)",
			Details: []*detail.Record{{Kind: detail.KindTask, Title: "Ship billing export v2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, artifact.StateTier1Pending, resubmitted.State)
		assert.Equal(t, "Week 42 (amended)", resubmitted.Title)
		assert.Empty(t, resubmitted.Tier1ReviewerID)

		records, err := h.Details(context.Background(), a.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Ship billing export v2", records[0].Title)

		var resubmittedEvent *event.Lifecycle
		for _, e := range h.events.events {
			if e.Kind == event.KindResubmitted {
				resubmittedEvent = e
			}
		}
		require.NotNil(t, resubmittedEvent)
		assert.Equal(t, artifact.StateApproved, resubmittedEvent.From)
		diff := resubmittedEvent.Extra["diff"]
		assert.Contains(t, diff, "-title: Week 42")
		assert.Contains(t, diff, "+title: Week 42 (amended)")
		assert.True(t, strings.HasPrefix(diff, "--- previous"))
	})

	t.Run("incomplete payload leaves content untouched", func(t *testing.T) {
		h := newHarness(t, setup{provider: fixed(0.1, "thin")})
		a := h.create(t, 1)
		rejected, err := h.Submit(context.Background(), a.ID, "owner-1")
		require.NoError(t, err)
		require.Equal(t, artifact.StateRejected, rejected.State)

		_, err = h.Resubmit(context.Background(), a.ID, "owner-1", &coordinator.Revision{Details: []*detail.Record{}})
		assert.ErrorIs(t, err, completeness.ErrIncomplete)

		records, err := h.Details(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		stored, err := h.Get(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, artifact.StateRejected, stored.State)
		assert.Equal(t, rejected.LatestOutcomeID, stored.LatestOutcomeID)
	})

	t.Run("only rejected or approved", func(t *testing.T) {
		h := newHarness(t, setup{})
		a := h.create(t, 1)
		_, err := h.Resubmit(context.Background(), a.ID, "owner-1", nil)
		assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)
	})
}

func TestCoordinator_Revise(t *testing.T) {
	h := newHarness(t, setup{})
	a := h.create(t, 1)

	revised, err := h.Revise(context.Background(), a.ID, "owner-1", &coordinator.Revision{Title: "Week 43"})
	require.NoError(t, err)
	assert.Equal(t, "Week 43", revised.Title)
	assert.Equal(t, artifact.StateDraft, revised.State)
	records, err := h.Details(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = h.Submit(context.Background(), a.ID, "owner-1")
	require.NoError(t, err)
	_, err = h.Revise(context.Background(), a.ID, "owner-1", &coordinator.Revision{Title: "sneaky"})
	assert.ErrorIs(t, err, artifact.ErrInvalidStateTransition)
}

func TestCoordinator_NotifierFailureDoesNotAffectTransition(t *testing.T) {
	for name, notifier := range map[string]notify.Notifier{
		"error": notify.Func(func(context.Context, *event.Lifecycle) error { return errors.New("smtp down") }),
		"panic": notify.Func(func(context.Context, *event.Lifecycle) error { panic("nil mailer") }),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, setup{provider: fixed(0.9, ""), notifier: notifier})
			a, err := h.Create(context.Background(), weeklyReport("owner-1", 1))
			require.NoError(t, err)
			submitted, err := h.Submit(context.Background(), a.ID, "owner-1")
			require.NoError(t, err)
			assert.Equal(t, artifact.StateTier1Pending, submitted.State)
		})
	}
}

func TestCoordinator_CreateValidation(t *testing.T) {
	h := newHarness(t, setup{})
	_, err := h.Create(context.Background(), nil)
	assert.Error(t, err)
	_, err = h.Create(context.Background(), &coordinator.Draft{Kind: "memo", OwnerID: "o"})
	assert.Error(t, err)
	_, err = h.Create(context.Background(), &coordinator.Draft{Kind: artifact.KindWeeklyReport})
	assert.Error(t, err)

	a, err := h.Create(context.Background(), &coordinator.Draft{Kind: artifact.KindProjectProposal, Title: "Apollo", OwnerID: "o", ReviewTiers: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ReviewTiers)
	assert.Equal(t, artifact.StateDraft, a.State)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestCoordinator_List(t *testing.T) {
	h := newHarness(t, setup{})
	first := h.create(t, 1)
	h.atGate(t, 1)

	drafts, err := h.List(context.Background(), dao.NewParameter(dao.ParamState, string(artifact.StateDraft)))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, first.ID, drafts[0].ID)

	all, err := h.List(context.Background(), dao.NewParameter(dao.ParamOwnerID, "owner-1"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.Details(context.Background(), "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
