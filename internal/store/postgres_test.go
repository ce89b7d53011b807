package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geopost/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var runColumns = []string{"id", "query", "backend", "state", "outcome", "examined", "embedded", "geocoded", "entries", "error", "created_at", "updated_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "weather", "arcgis", "idle", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "weather", "arcgis")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStateIdle, run.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunState_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET state = \$1`).
		WithArgs("streaming", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunState(context.Background(), "missing", model.RunStateStreaming)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET state = \$1, outcome = \$2`).
		WithArgs("done", "completed", 4, 1, 2, 3, "", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunResult(context.Background(), "run-1", &model.RunResult{
		Outcome:  model.OutcomeCompleted,
		Counters: model.Counters{Examined: 4, Embedded: 1, Geocoded: 2},
		Entries:  3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, query, backend, state, outcome, .* FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-1", "weather", "arcgis", "done", "completed", 4, 1, 2, 3, "", now, now))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeCompleted, got.Outcome)
	assert.Equal(t, model.RunStateDone, got.State)
	assert.Equal(t, model.Counters{Examined: 4, Embedded: 1, Geocoded: 2}, got.Counters)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`AND state = \$1 AND query = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("done", "weather", 10, 5).
		WillReturnRows(pgxmock.NewRows(runColumns).
			AddRow("run-1", "weather", "arcgis", "done", "completed", 1, 1, 0, 1, "", now, now).
			AddRow("run-2", "weather", "mapquest", "done", "completed_with_provider_throttle", 9, 0, 4, 4, "throttled", now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{State: model.RunStateDone, Query: "weather", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.OutcomeCompletedWithProviderThrottle, runs[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
