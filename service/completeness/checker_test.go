package completeness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao/detail/memory"
)

func TestCheck(t *testing.T) {
	type testCase struct {
		description string
		kind        artifact.Kind
		title       string
		records     []*detail.Record
		missing     string
	}
	for _, tc := range []testCase{
		{description: "report with task", kind: artifact.KindWeeklyReport, title: "Week 1", records: []*detail.Record{{Kind: detail.KindTask}}},
		{description: "proposal with phase", kind: artifact.KindProjectProposal, title: "Apollo", records: []*detail.Record{{Kind: detail.KindPhase}}},
		{description: "blank title", kind: artifact.KindWeeklyReport, title: "  ", records: []*detail.Record{{Kind: detail.KindTask}}, missing: "missing title"},
		{description: "proposal with only tasks", kind: artifact.KindProjectProposal, title: "Apollo", records: []*detail.Record{{Kind: detail.KindTask}}, missing: "missing at least one phase"},
		{description: "empty report", kind: artifact.KindWeeklyReport, records: []*detail.Record{nil}, missing: "missing title, at least one task"},
	} {
		t.Run(tc.description, func(t *testing.T) {
			err := Check(tc.kind, tc.title, tc.records)
			if tc.missing == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Contains(t, err.Error(), tc.missing)
		})
	}
}

func TestChecker_Stored(t *testing.T) {
	ctx := context.Background()
	details := memory.New()
	checker := New(details)
	a := artifact.New("a1", artifact.KindProjectProposal, "Apollo", "owner", 2)

	assert.ErrorIs(t, checker.Check(ctx, a), ErrIncomplete)
	require.NoError(t, details.Replace(ctx, "a1", []*detail.Record{{Kind: detail.KindPhase, Title: "Design"}}))
	assert.NoError(t, checker.Check(ctx, a))
}
