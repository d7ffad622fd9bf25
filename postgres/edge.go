package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/ridemap"
)

const edgeColumns = `id, from_node_id, to_node_id, profile, cleared`

func scanEdge(row pgx.Row) (ridemap.Edge, error) {
	var (
		e       ridemap.Edge
		profile []byte
	)
	if err := row.Scan(&e.ID, &e.From, &e.To, &profile, &e.Cleared); err != nil {
		return ridemap.Edge{}, err
	}
	if err := json.Unmarshal(profile, &e.Profile); err != nil {
		return ridemap.Edge{}, fmt.Errorf("ridemap: decode edge %s: %w", e.ID, err)
	}
	return e, nil
}

// GetEdge fetches a single edge by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetEdge(ctx context.Context, edgeID string) (*ridemap.Edge, error) {
	e, err := scanEdge(s.db.QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM ridemap_edges WHERE id = $1`, edgeID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ridemap: get edge: %w", err)
	}
	return &e, nil
}

// SetEdgeCleared updates an edge's cleared flag. Terrain is never rewritten.
// Returns ErrEdgeNotFound if the edge doesn't exist.
func (s *PGStore) SetEdgeCleared(ctx context.Context, edgeID string, cleared bool) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE ridemap_edges SET cleared = $1 WHERE id = $2`, cleared, edgeID)
	if err != nil {
		return fmt.Errorf("ridemap: update edge: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ridemap.ErrEdgeNotFound
	}
	return nil
}

// ListEdges returns all edges for a run in creation order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEdges(ctx context.Context, runID string) ([]ridemap.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+edgeColumns+` FROM ridemap_edges WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("ridemap: list edges: %w", err)
	}
	defer rows.Close()

	edges := []ridemap.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("ridemap: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ridemap: rows edges: %w", err)
	}

	return edges, nil
}
