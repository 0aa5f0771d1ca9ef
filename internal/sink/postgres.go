package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orderflow/internal/constants"
	"orderflow/pkg/migrations"
)

const (
	insertObjectQuery = `INSERT INTO sink_objects (container, name, body, content_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (container, name) DO NOTHING`

	upsertObjectQuery = `INSERT INTO sink_objects (container, name, body, content_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (container, name) DO UPDATE
SET body = EXCLUDED.body, content_type = EXCLUDED.content_type, updated_at = now()
RETURNING (xmax = 0) AS inserted`

	fetchObjectQuery = `SELECT body FROM sink_objects WHERE container = $1 AND name = $2`

	tableExistsQuery = `SELECT to_regclass('sink_objects') IS NOT NULL`
)

// PostgresSink stores objects as rows of sink_objects keyed by
// (container, name).
type PostgresSink struct {
	db        *sql.DB
	container string
}

func NewPostgresSink(db *sql.DB, container string) *PostgresSink {
	return &PostgresSink{db: db, container: container}
}

func (s *PostgresSink) Kind() string {
	return constants.SinkTypePostgres
}

func (s *PostgresSink) EnsureContainer(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return migrations.RunPostgres(ctx, s.db)
}

// Check reports whether the sink table is reachable without touching the
// schema.
func (s *PostgresSink) Check(ctx context.Context) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, tableExistsQuery).Scan(&exists); err != nil {
		return fmt.Errorf("failed to probe sink table: %w", err)
	}
	if !exists {
		return ErrContainerMissing.WithDetail("container", s.container)
	}
	return nil
}

func (s *PostgresSink) Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error) {
	if body == nil {
		body = []byte{}
	}

	if !overwrite {
		res, err := s.db.ExecContext(ctx, insertObjectQuery, s.container, name, body, contentTypeJSON)
		if err != nil {
			return 0, fmt.Errorf("failed to insert object %s: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return StatusConflict, ErrObjectExists.WithDetail("name", name)
		}
		return StatusCreated, nil
	}

	var inserted bool
	err := s.db.QueryRowContext(ctx, upsertObjectQuery, s.container, name, body, contentTypeJSON).Scan(&inserted)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert object %s: %w", name, err)
	}
	if inserted {
		return StatusCreated, nil
	}
	return StatusReplaced, nil
}

func (s *PostgresSink) Fetch(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, fetchObjectQuery, s.container, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("object %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to fetch object %s: %w", name, err)
	}
	return body, nil
}
