package heuristic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/analysis"
)

func TestProvider_Analyze(t *testing.T) {
	long := strings.Repeat("x", 40)
	type testCase struct {
		description string
		subject     *analysis.Subject
		expect      float64
		narrative   string
	}
	for _, tc := range []testCase{
		{
			description: "fully described report",
			subject: &analysis.Subject{Kind: artifact.KindWeeklyReport, Title: "Week 1", Details: []*detail.Record{
				{Kind: detail.KindTask, Title: "a", Body: long},
				{Kind: detail.KindTask, Title: "b", Body: long},
				{Kind: detail.KindTask, Title: "c", Body: long},
			}},
			expect:    1.0,
			narrative: "well formed",
		},
		{
			description: "sparse report",
			subject: &analysis.Subject{Kind: artifact.KindWeeklyReport, Title: "Week 2", Details: []*detail.Record{
				{Kind: detail.KindTask, Title: "a"},
			}},
			expect:    0.2 + 0.4/3,
			narrative: "1 of 3 expected tasks",
		},
		{
			description: "proposal ignores tasks",
			subject: &analysis.Subject{Kind: artifact.KindProjectProposal, Details: []*detail.Record{
				{Kind: detail.KindTask, Title: "a", Body: long},
			}},
			expect:    0,
			narrative: "missing title",
		},
	} {
		t.Run(tc.description, func(t *testing.T) {
			result, err := New(DefaultConfig()).Analyze(context.Background(), tc.subject)
			require.NoError(t, err)
			require.NotNil(t, result.Confidence)
			assert.InDelta(t, tc.expect, *result.Confidence, 1e-9)
			assert.Contains(t, result.Narrative, tc.narrative)
		})
	}
}

func TestProvider_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Analyze(ctx, &analysis.Subject{})
	assert.ErrorIs(t, err, context.Canceled)
}
