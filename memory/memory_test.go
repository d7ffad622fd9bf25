package memory_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/meikuraledutech/ridemap"
	"github.com/meikuraledutech/ridemap/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(t *testing.T, seed int64) *ridemap.Run {
	t.Helper()
	gen := ridemap.NewGenerator(
		ridemap.WithSource(ridemap.SeededSource(seed)),
		ridemap.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return gen.NewRun(ridemap.RunConfig{TotalDistanceKm: 40, Difficulty: ridemap.DifficultyNormal})
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	run := newRun(t, 1)

	saved, err := s.SaveRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, run.ID, saved.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Visited, got.Visited)
	assert.Equal(t, run.TotalMapDistanceM, got.TotalMapDistanceM)
	require.Len(t, got.Edges, len(run.Edges))
	for i := range run.Edges {
		assert.Equal(t, run.Edges[i].ID, got.Edges[i].ID)
		assert.Equal(t, run.Edges[i].Profile.Segments(), got.Edges[i].Profile.Segments())
	}
	assert.NoError(t, ridemap.Validate(got))
}

func TestGetRunIsACopy(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	run := newRun(t, 2)
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	run.Nodes[0].Biome = "mutated"
	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Nodes[0].Biome)

	got.Visited = append(got.Visited, "elsewhere")
	again, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hub"}, again.Visited)
}

func TestSaveRunRejectsInvalidGraph(t *testing.T) {
	s := memory.New()
	run := newRun(t, 3)
	run.Nodes[0].Type = ridemap.NodeStandard

	_, err := s.SaveRun(t.Context(), run)
	assert.ErrorIs(t, err, ridemap.ErrInvalidGraph)
}

func TestSaveRunReplaces(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	first := newRun(t, 4)
	_, err := s.SaveRun(ctx, first)
	require.NoError(t, err)
	oldEdge := first.Edges[0].ID

	second := newRun(t, 5)
	second.ID = first.ID
	_, err = s.SaveRun(ctx, second)
	require.NoError(t, err)

	e, err := s.GetEdge(ctx, oldEdge)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = s.GetEdge(ctx, second.Edges[0].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestSaveRunRejectsEdgesOfAnotherRun(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	first := newRun(t, 11)
	_, err := s.SaveRun(ctx, first)
	require.NoError(t, err)

	// Same graph and edge IDs under a new run ID.
	copied := *first
	copied.ID = "copy"
	_, err = s.SaveRun(ctx, &copied)
	require.ErrorIs(t, err, ridemap.ErrInvalidGraph)

	got, err := s.GetRun(ctx, "copy")
	require.NoError(t, err)
	assert.Nil(t, got)

	e, err := s.GetEdge(ctx, first.Edges[0].ID)
	require.NoError(t, err)
	require.NotNil(t, e)

	// The owning run can still be deleted cleanly and its edges go with it.
	require.NoError(t, s.DeleteRun(ctx, first.ID))
	e, err = s.GetEdge(ctx, first.Edges[0].ID)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestDeleteRunKeepsOtherRunsEdges(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	a, b := newRun(t, 12), newRun(t, 13)
	_, err := s.SaveRun(ctx, a)
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, b)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, a.ID))
	for _, edge := range b.Edges {
		e, err := s.GetEdge(ctx, edge.ID)
		require.NoError(t, err)
		assert.NotNil(t, e, edge.ID)
	}
}

func TestMissingRun(t *testing.T) {
	ctx := t.Context()
	s := memory.New()

	run, err := s.GetRun(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, run)

	nodes, err := s.ListNodes(ctx, "nope")
	assert.NoError(t, err)
	assert.Empty(t, nodes)
	assert.NotNil(t, nodes)

	edges, err := s.ListEdges(ctx, "nope")
	assert.NoError(t, err)
	assert.Empty(t, edges)

	edge, err := s.GetEdge(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, edge)

	assert.NoError(t, s.DeleteRun(ctx, "nope"))
	assert.ErrorIs(t, s.SetPosition(ctx, "nope", "hub"), ridemap.ErrRunNotFound)
	assert.ErrorIs(t, s.SetEdgeCleared(ctx, "nope", true), ridemap.ErrEdgeNotFound)
}

func TestSetEdgeCleared(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	run := newRun(t, 6)
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	id := run.Edges[3].ID
	require.NoError(t, s.SetEdgeCleared(ctx, id, true))
	e, err := s.GetEdge(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.Cleared)

	edges, err := s.ListEdges(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, edges[3].Cleared)
	assert.False(t, edges[2].Cleared)

	require.NoError(t, s.SetEdgeCleared(ctx, id, false))
	e, err = s.GetEdge(ctx, id)
	require.NoError(t, err)
	assert.False(t, e.Cleared)
}

func TestSetPosition(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	run := newRun(t, 7)
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	require.NoError(t, s.SetPosition(ctx, run.ID, "s0-c0"))
	require.NoError(t, s.SetPosition(ctx, run.ID, "s0-c1"))
	require.NoError(t, s.SetPosition(ctx, run.ID, "s0-c0"))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "s0-c0", got.CurrentNodeID)
	assert.Equal(t, []string{"hub", "s0-c0", "s0-c1"}, got.Visited)

	assert.ErrorIs(t, s.SetPosition(ctx, run.ID, "nowhere"), ridemap.ErrNodeNotFound)
}

func TestDeleteRunAndDropSchema(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	a, b := newRun(t, 8), newRun(t, 9)
	_, err := s.SaveRun(ctx, a)
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, b)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, a.ID))
	got, err := s.GetRun(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	e, err := s.GetEdge(ctx, a.Edges[0].ID)
	require.NoError(t, err)
	assert.Nil(t, e)

	require.NoError(t, s.CreateSchema(ctx))
	require.NoError(t, s.DropSchema(ctx))
	got, err = s.GetRun(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := t.Context()
	s := memory.New()
	run := newRun(t, 10)
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range run.Edges {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, s.SetEdgeCleared(ctx, id, true))
		}(run.Edges[i].ID)
		go func() {
			defer wg.Done()
			_, err := s.GetRun(ctx, run.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	edges, err := s.ListEdges(ctx, run.ID)
	require.NoError(t, err)
	for _, e := range edges {
		assert.True(t, e.Cleared)
	}
}
