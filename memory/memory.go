// Package memory implements ridemap.Store in process memory.
//
// Runs are deep-copied through JSON on the way in and out, so callers never
// share slices with the store. Useful for tests, the CLI and single-process
// deployments that don't need durability.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/ridemap"
)

// MemStore implements ridemap.Store with a mutex-guarded map.
type MemStore struct {
	mu   sync.RWMutex
	runs map[string]*ridemap.Run
	// edgeRun maps edge ID to owning run ID.
	edgeRun map[string]string
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		runs:    make(map[string]*ridemap.Run),
		edgeRun: make(map[string]string),
	}
}

// CreateSchema is a no-op.
func (s *MemStore) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards every stored run.
func (s *MemStore) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]*ridemap.Run)
	s.edgeRun = make(map[string]string)
	return nil
}

// SaveRun validates and stores a copy of run, replacing any run with the
// same ID. Edge IDs owned by a different run are rejected.
func (s *MemStore) SaveRun(ctx context.Context, run *ridemap.Run) (*ridemap.Run, error) {
	if err := ridemap.Validate(run); err != nil {
		return nil, err
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	for i := range run.Edges {
		if run.Edges[i].ID == "" {
			run.Edges[i].ID = uuid.NewString()
		}
	}
	cp, err := clone(run)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range cp.Edges {
		if owner, ok := s.edgeRun[e.ID]; ok && owner != cp.ID {
			return nil, fmt.Errorf("%w: edge %s already belongs to run %s", ridemap.ErrInvalidGraph, e.ID, owner)
		}
	}
	if old, ok := s.runs[run.ID]; ok {
		s.unlinkEdges(old)
	}
	s.runs[run.ID] = cp
	for _, e := range cp.Edges {
		s.edgeRun[e.ID] = cp.ID
	}
	return run, nil
}

// GetRun returns a copy of the run, or nil, nil if it doesn't exist.
func (s *MemStore) GetRun(ctx context.Context, runID string) (*ridemap.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	return clone(run)
}

// DeleteRun removes a run. No error if it doesn't exist.
func (s *MemStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[runID]; ok {
		s.unlinkEdges(run)
		delete(s.runs, runID)
	}
	return nil
}

// unlinkEdges drops the edge index entries owned by run. Callers hold mu.
func (s *MemStore) unlinkEdges(run *ridemap.Run) {
	for _, e := range run.Edges {
		if s.edgeRun[e.ID] == run.ID {
			delete(s.edgeRun, e.ID)
		}
	}
}

// ListNodes returns the run's nodes, or an empty slice.
func (s *MemStore) ListNodes(ctx context.Context, runID string) ([]ridemap.Node, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil || run == nil {
		return []ridemap.Node{}, err
	}
	return run.Nodes, nil
}

// ListEdges returns the run's edges, or an empty slice.
func (s *MemStore) ListEdges(ctx context.Context, runID string) ([]ridemap.Edge, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil || run == nil {
		return []ridemap.Edge{}, err
	}
	return run.Edges, nil
}

// GetEdge returns a copy of the edge, or nil, nil if it doesn't exist.
func (s *MemStore) GetEdge(ctx context.Context, edgeID string) (*ridemap.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runID, ok := s.edgeRun[edgeID]
	if !ok {
		return nil, nil
	}
	e, ok := s.runs[runID].Edge(edgeID)
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

// SetEdgeCleared flips the cleared flag on an edge.
func (s *MemStore) SetEdgeCleared(ctx context.Context, edgeID string, cleared bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, ok := s.edgeRun[edgeID]
	if !ok {
		return ridemap.ErrEdgeNotFound
	}
	e, ok := s.runs[runID].Edge(edgeID)
	if !ok {
		return ridemap.ErrEdgeNotFound
	}
	e.Cleared = cleared
	return nil
}

// SetPosition moves the run's current node and marks it visited.
func (s *MemStore) SetPosition(ctx context.Context, runID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return ridemap.ErrRunNotFound
	}
	if _, ok := run.Node(nodeID); !ok {
		return ridemap.ErrNodeNotFound
	}
	run.CurrentNodeID = nodeID
	if !run.HasVisited(nodeID) {
		run.Visited = append(run.Visited, nodeID)
	}
	return nil
}

func clone(run *ridemap.Run) (*ridemap.Run, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("ridemap: encode run: %w", err)
	}
	var cp ridemap.Run
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("ridemap: decode run: %w", err)
	}
	return &cp, nil
}

var _ ridemap.Store = (*MemStore)(nil)
