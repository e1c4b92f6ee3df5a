package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/dao"
)

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Replace(ctx, "a1", []*detail.Record{
		{Kind: detail.KindTask, Title: "second", Position: 2},
		{Kind: detail.KindTask, Title: "first", Position: 1},
		{Kind: detail.KindPhase, Title: "phase"},
	}))
	records, err := s.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].Title)
	assert.Equal(t, "a1", records[0].ArtifactID)
	assert.NotEmpty(t, records[0].ID)

	tasks, _ := s.Count(ctx, "a1", detail.KindTask)
	assert.Equal(t, 2, tasks)
	all, _ := s.Count(ctx, "a1", "")
	assert.Equal(t, 3, all)

	require.NoError(t, s.Replace(ctx, "a1", []*detail.Record{{Kind: detail.KindPhase, Title: "only"}}))
	all, _ = s.Count(ctx, "a1", "")
	assert.Equal(t, 1, all)

	assert.ErrorIs(t, s.Replace(ctx, "", nil), dao.ErrInvalidID)
	assert.ErrorIs(t, s.Replace(ctx, "a1", []*detail.Record{nil}), dao.ErrNilEntity)

	none, _ := s.Count(ctx, "unknown", "")
	assert.Zero(t, none)
}
