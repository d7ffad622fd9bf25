package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/ridemap"
)

// SaveRun saves a full run (nodes + edges) in one transaction.
// A run without an ID gets a generated UUID. The graph is validated first and
// any previously stored run with the same ID is replaced.
// Returns the run with its ID filled in.
func (s *PGStore) SaveRun(ctx context.Context, run *ridemap.Run) (*ridemap.Run, error) {
	if err := ridemap.Validate(run); err != nil {
		return nil, err
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return nil, fmt.Errorf("ridemap: encode config: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ridemap: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics: nodes and edges cascade from the run row.
	if _, err := tx.Exec(ctx, `DELETE FROM ridemap_runs WHERE id = $1`, run.ID); err != nil {
		return nil, fmt.Errorf("ridemap: delete run: %w", err)
	}

	visited := run.Visited
	if visited == nil {
		visited = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ridemap_runs (id, config, current_node_id, visited, run_length, total_map_distance_m, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, cfg, run.CurrentNodeID, visited, run.RunLength, run.TotalMapDistanceM, run.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("ridemap: insert run: %w", err)
	}

	for i, n := range run.Nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("ridemap: encode node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO ridemap_nodes (run_id, id, seq, data) VALUES ($1, $2, $3, $4)`,
			run.ID, n.ID, i, data,
		); err != nil {
			return nil, fmt.Errorf("ridemap: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range run.Edges {
		if e.ID == "" {
			run.Edges[i].ID = uuid.NewString()
			e.ID = run.Edges[i].ID
		}
		profile, err := json.Marshal(e.Profile)
		if err != nil {
			return nil, fmt.Errorf("ridemap: encode profile %s: %w", e.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO ridemap_edges (id, run_id, seq, from_node_id, to_node_id, profile, cleared)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, run.ID, i, e.From, e.To, profile, e.Cleared,
		); err != nil {
			return nil, fmt.Errorf("ridemap: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ridemap: commit: %w", err)
	}
	return run, nil
}

// GetRun retrieves a full run (nodes + edges) by its ID.
// Returns nil, nil if the run doesn't exist.
func (s *PGStore) GetRun(ctx context.Context, runID string) (*ridemap.Run, error) {
	run := &ridemap.Run{ID: runID}
	var cfg []byte
	err := s.db.QueryRow(ctx,
		`SELECT config, current_node_id, visited, run_length, total_map_distance_m, created_at
		 FROM ridemap_runs WHERE id = $1`, runID,
	).Scan(&cfg, &run.CurrentNodeID, &run.Visited, &run.RunLength, &run.TotalMapDistanceM, &run.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ridemap: get run: %w", err)
	}
	if err := json.Unmarshal(cfg, &run.Config); err != nil {
		return nil, fmt.Errorf("ridemap: decode config: %w", err)
	}

	if run.Nodes, err = s.ListNodes(ctx, runID); err != nil {
		return nil, err
	}
	if run.Edges, err = s.ListEdges(ctx, runID); err != nil {
		return nil, err
	}
	return run, nil
}

// DeleteRun removes a run with all its nodes and edges.
// No error if the run doesn't exist.
func (s *PGStore) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM ridemap_runs WHERE id = $1`, runID); err != nil {
		return fmt.Errorf("ridemap: delete run: %w", err)
	}
	return nil
}
