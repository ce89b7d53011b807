package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query      TEXT NOT NULL,
	backend    TEXT NOT NULL,
	state      TEXT NOT NULL DEFAULT 'idle',
	outcome    TEXT NOT NULL DEFAULT '',
	examined   INTEGER NOT NULL DEFAULT 0,
	embedded   INTEGER NOT NULL DEFAULT 0,
	geocoded   INTEGER NOT NULL DEFAULT 0,
	entries    INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

const postgresRunColumns = `id, query, backend, state, outcome, examined, embedded, geocoded, entries, error, created_at, updated_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, query, backend string) (*model.RunRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, query, backend, state, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, query, backend, string(model.RunStateIdle), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.RunRecord{
		ID:        id,
		Query:     query,
		Backend:   backend,
		State:     model.RunStateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunState(ctx context.Context, runID string, state model.RunState) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET state = $1, updated_at = $2 WHERE id = $3`,
		string(state), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run state %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET state = $1, outcome = $2, examined = $3, embedded = $4, geocoded = $5, entries = $6, error = $7, updated_at = $8 WHERE id = $9`,
		string(finalState(result)), outcomeText(result.Outcome),
		result.Counters.Examined, result.Counters.Embedded, result.Counters.Geocoded,
		result.Entries, resultError(result), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresRunColumns+` FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, string(filter.State))
		argIdx++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(` AND query = $%d`, argIdx)
		args = append(args, filter.Query)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
