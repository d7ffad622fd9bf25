package ridemap

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected     = errors.New("ridemap: cycle detected, run map is not acyclic")
	ErrUnreachableFinish = errors.New("ridemap: finish not reachable from start")
	ErrInvalidGraph      = errors.New("ridemap: invalid run map")
	ErrRunNotFound       = errors.New("ridemap: run not found")
	ErrNodeNotFound      = errors.New("ridemap: node not found")
	ErrEdgeNotFound      = errors.New("ridemap: edge not found")
)

// Store defines the contract for persisting generated runs. It is the
// run-state collaborator's side of the map: generation never writes to it.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Runs (bulk operations)
	SaveRun(ctx context.Context, run *Run) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	DeleteRun(ctx context.Context, runID string) error

	// Graph reads
	ListNodes(ctx context.Context, runID string) ([]Node, error)
	ListEdges(ctx context.Context, runID string) ([]Edge, error)
	GetEdge(ctx context.Context, edgeID string) (*Edge, error)

	// Run-state mutations
	SetEdgeCleared(ctx context.Context, edgeID string, cleared bool) error
	SetPosition(ctx context.Context, runID, nodeID string) error
}
