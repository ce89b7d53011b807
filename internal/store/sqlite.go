package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geopost/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	backend    TEXT NOT NULL,
	state      TEXT NOT NULL DEFAULT 'idle',
	outcome    TEXT NOT NULL DEFAULT '',
	examined   INTEGER NOT NULL DEFAULT 0,
	embedded   INTEGER NOT NULL DEFAULT 0,
	geocoded   INTEGER NOT NULL DEFAULT 0,
	entries    INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query);
`

const sqliteRunColumns = `id, query, backend, state, outcome, examined, embedded, geocoded, entries, error, created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, query, backend string) (*model.RunRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, backend, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, query, backend, string(model.RunStateIdle), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) UpdateRunState(ctx context.Context, runID string, state model.RunState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, updated_at = ? WHERE id = ?`,
		string(state), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run state %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, outcome = ?, examined = ?, embedded = ?, geocoded = ?, entries = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(finalState(result)), outcomeText(result.Outcome),
		result.Counters.Examined, result.Counters.Embedded, result.Counters.Geocoded,
		result.Entries, resultError(result), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, string(filter.State))
	}
	if filter.Query != "" {
		query += ` AND query = ?`
		args = append(args, filter.Query)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: run %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.RunRecord, error) {
	var r model.RunRecord
	var state, outcome string
	err := row.Scan(&r.ID, &r.Query, &r.Backend, &state, &outcome,
		&r.Counters.Examined, &r.Counters.Embedded, &r.Counters.Geocoded,
		&r.Entries, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.State = model.RunState(state)
	r.Outcome = model.ParseRunOutcome(outcome)
	return &r, nil
}
