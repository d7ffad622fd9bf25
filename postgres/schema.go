package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ridemap_runs (
    id                   TEXT PRIMARY KEY,
    config               JSONB NOT NULL DEFAULT '{}',
    current_node_id      TEXT NOT NULL,
    visited              TEXT[] NOT NULL DEFAULT '{}',
    run_length           INTEGER NOT NULL,
    total_map_distance_m DOUBLE PRECISION NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ridemap_nodes (
    run_id TEXT NOT NULL REFERENCES ridemap_runs(id) ON DELETE CASCADE,
    id     TEXT NOT NULL,
    seq    INTEGER NOT NULL,
    data   JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS ridemap_edges (
    id           TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    from_node_id TEXT NOT NULL,
    to_node_id   TEXT NOT NULL,
    profile      JSONB NOT NULL,
    cleared      BOOLEAN NOT NULL DEFAULT FALSE,
    FOREIGN KEY (run_id, from_node_id) REFERENCES ridemap_nodes(run_id, id) ON DELETE CASCADE,
    FOREIGN KEY (run_id, to_node_id)   REFERENCES ridemap_nodes(run_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ridemap_edges_run_id ON ridemap_edges(run_id);
CREATE INDEX IF NOT EXISTS idx_ridemap_edges_from   ON ridemap_edges(run_id, from_node_id);
CREATE INDEX IF NOT EXISTS idx_ridemap_edges_to     ON ridemap_edges(run_id, to_node_id);
`

// CreateSchema creates the run, node and edge tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the run, node and edge tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS ridemap_edges, ridemap_nodes, ridemap_runs CASCADE;`)
	return err
}
