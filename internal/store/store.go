// Package store persists run history.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geopost/internal/model"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	State        model.RunState `json:"state,omitempty"`
	Query        string         `json:"query,omitempty"`
	CreatedAfter time.Time      `json:"created_after,omitempty"`
	Limit        int            `json:"limit,omitempty"`
	Offset       int            `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for run history.
type Store interface {
	CreateRun(ctx context.Context, query, backend string) (*model.RunRecord, error)
	UpdateRunState(ctx context.Context, runID string, state model.RunState) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured driver and applies migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(driver) {
	case "", "sqlite":
		st, err = NewSQLite(dsn)
	case "postgres", "postgresql":
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// finalState maps a run outcome to the terminal state it is stored with.
func finalState(result *model.RunResult) model.RunState {
	if result.Outcome == model.OutcomeAuthenticationFailed {
		return model.RunStateFailed
	}
	return model.RunStateDone
}

func resultError(result *model.RunResult) string {
	if result.Err == nil {
		return ""
	}
	return result.Err.Error()
}

func outcomeText(o model.RunOutcome) string {
	if o == 0 {
		return ""
	}
	return o.String()
}
