package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/ridemap"
)

// ListNodes returns all nodes for a run in creation order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, runID string) ([]ridemap.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT data FROM ridemap_nodes WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("ridemap: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []ridemap.Node{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("ridemap: scan node: %w", err)
		}
		var n ridemap.Node
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("ridemap: decode node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ridemap: rows nodes: %w", err)
	}

	return nodes, nil
}

// SetPosition moves the run's current node and marks it visited.
// Returns ErrRunNotFound if the run doesn't exist and ErrNodeNotFound if
// the node isn't part of it.
func (s *PGStore) SetPosition(ctx context.Context, runID, nodeID string) error {
	var runExists, nodeExists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ridemap_runs WHERE id = $1),
		        EXISTS (SELECT 1 FROM ridemap_nodes WHERE run_id = $1 AND id = $2)`, runID, nodeID,
	).Scan(&runExists, &nodeExists)
	if err != nil {
		return fmt.Errorf("ridemap: find node: %w", err)
	}
	if !runExists {
		return ridemap.ErrRunNotFound
	}
	if !nodeExists {
		return ridemap.ErrNodeNotFound
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE ridemap_runs
		 SET current_node_id = $2,
		     visited = CASE WHEN $2 = ANY(visited) THEN visited ELSE array_append(visited, $2) END
		 WHERE id = $1`,
		runID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("ridemap: set position: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ridemap.ErrRunNotFound
	}
	return nil
}
