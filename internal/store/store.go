package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the tables the service writes to if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS api_logs (
			request_id  uuid PRIMARY KEY,
			job_id      text,
			path        text NOT NULL,
			method      text NOT NULL,
			status_code integer NOT NULL,
			logs        jsonb NOT NULL DEFAULT '[]'::jsonb,
			created_at  timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS api_logs_created_at_idx ON api_logs (created_at DESC);
		CREATE INDEX IF NOT EXISTS api_logs_job_id_idx ON api_logs (job_id);`)
	if err != nil {
		return fmt.Errorf("migrate api_logs: %w", err)
	}
	return nil
}
