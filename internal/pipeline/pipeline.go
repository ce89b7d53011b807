// Package pipeline drives one collection run: open the post source, resolve
// each post to a coordinate, accumulate entries, then write every output.
package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/internal/export"
	"github.com/sells-group/geopost/internal/model"
	"github.com/sells-group/geopost/internal/resolve"
	"github.com/sells-group/geopost/internal/source"
	"github.com/sells-group/geopost/internal/store"
)

// ErrAlreadyRun is returned when Run is called on a Pipeline that has
// already started.
var ErrAlreadyRun = eris.New("pipeline: already run")

// Resolver determines the coordinate of one post.
type Resolver interface {
	Resolve(ctx context.Context, post *model.Post) resolve.Outcome
}

// Config holds what one run needs.
type Config struct {
	Query    string // stamped into each entry's Search column
	Backend  string // geocoding backend name, recorded in run history
	Open     source.Opener
	Resolver Resolver
	Targets  export.Targets
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records run state and the final result in st.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) {
		p.store = st
	}
}

// WithOnComplete registers fn to receive the result once the run is done.
func WithOnComplete(fn func(*model.RunResult)) Option {
	return func(p *Pipeline) {
		p.onComplete = fn
	}
}

// Pipeline runs a single collection. A Pipeline is used for one run only.
type Pipeline struct {
	cfg        Config
	store      store.Store
	onComplete func(*model.RunResult)

	mu      sync.Mutex
	started bool
	state   model.RunState
	runID   string
}

// New creates a Pipeline in the idle state.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, state: model.RunStateIdle}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// transitions lists the legal successors of each state.
var transitions = map[model.RunState][]model.RunState{
	model.RunStateIdle:           {model.RunStateAuthenticating},
	model.RunStateAuthenticating: {model.RunStateStreaming, model.RunStateFailed},
	model.RunStateStreaming:      {model.RunStateDraining},
	model.RunStateDraining:       {model.RunStateWriting},
	model.RunStateWriting:        {model.RunStateDone},
}

// State returns the current state.
func (p *Pipeline) State() model.RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RunID returns the run history ID, or "" when no store is attached.
func (p *Pipeline) RunID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runID
}

func (p *Pipeline) advance(ctx context.Context, to model.RunState) error {
	p.mu.Lock()
	from := p.state
	legal := false
	for _, next := range transitions[from] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		p.mu.Unlock()
		return eris.Errorf("pipeline: illegal transition %s -> %s", from, to)
	}
	p.state = to
	runID := p.runID
	p.mu.Unlock()

	zap.L().Debug("pipeline: state", zap.String("from", string(from)), zap.String("to", string(to)))
	if p.store != nil && runID != "" && !to.Terminal() {
		if err := p.store.UpdateRunState(context.WithoutCancel(ctx), runID, to); err != nil {
			zap.L().Warn("pipeline: failed to update run state", zap.String("run_id", runID), zap.Error(err))
		}
	}
	return nil
}

// Run executes the run to completion and returns its result. It never
// returns nil. Only a source open failure skips the writers. A second call
// returns a result with no outcome and ErrAlreadyRun, and records nothing.
func (p *Pipeline) Run(ctx context.Context) *model.RunResult {
	log := zap.L().With(zap.String("query", p.cfg.Query), zap.String("backend", p.cfg.Backend))
	if !p.claim() {
		log.Warn("pipeline: run rejected", zap.Error(ErrAlreadyRun))
		return &model.RunResult{Err: ErrAlreadyRun}
	}

	start := time.Now()
	log.Info("pipeline: starting run")

	p.createRun(ctx)

	result := p.run(ctx, log)

	p.finishRun(ctx, result)
	log.Info("pipeline: run finished",
		zap.String("outcome", result.Outcome.String()),
		zap.Int("entries", result.Entries),
		zap.Int("write_failures", len(result.WriteFailures())),
		zap.Duration("elapsed", time.Since(start)),
	)
	if p.onComplete != nil {
		p.onComplete(result)
	}
	return result
}

// claim marks the pipeline as started and reports whether it was idle.
func (p *Pipeline) claim() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return false
	}
	p.started = true
	return true
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger) *model.RunResult {
	if err := p.advance(ctx, model.RunStateAuthenticating); err != nil {
		return &model.RunResult{Outcome: model.OutcomeAuthenticationFailed, Err: err}
	}

	src, err := p.cfg.Open(ctx)
	if err != nil {
		log.Error("pipeline: source authentication failed", zap.Error(err))
		_ = p.advance(ctx, model.RunStateFailed)
		if !errors.Is(err, source.ErrAuth) {
			err = eris.Wrapf(source.ErrAuth, "pipeline: open source: %v", err)
		}
		return &model.RunResult{Outcome: model.OutcomeAuthenticationFailed, Err: err}
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close() //nolint:errcheck
	}

	_ = p.advance(ctx, model.RunStateStreaming)
	acc := NewAccumulator()
	result := &model.RunResult{Outcome: model.OutcomeCompleted}
	query := strings.TrimSpace(p.cfg.Query)

	for {
		post, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Any mid-stream stop keeps what was collected.
			result.Outcome = model.OutcomeCompletedWithProviderThrottle
			result.Err = err
			if errors.Is(err, source.ErrThrottled) {
				log.Warn("pipeline: provider throttled the stream", zap.Int("examined", result.Counters.Examined))
			} else {
				log.Warn("pipeline: stream ended early", zap.Int("examined", result.Counters.Examined), zap.Error(err))
			}
			break
		}

		result.Counters.Examined++
		out := p.cfg.Resolver.Resolve(ctx, post)
		if !out.Resolved() {
			continue
		}
		if out.Method == resolve.MethodEmbedded {
			result.Counters.Embedded++
		} else {
			result.Counters.Geocoded++
		}
		acc.Append(model.NewEntry(post, out.Latitude, out.Longitude, query))
	}

	_ = p.advance(ctx, model.RunStateDraining)
	log.Info("pipeline: streaming complete",
		zap.Int("examined", result.Counters.Examined),
		zap.Int("embedded", result.Counters.Embedded),
		zap.Int("geocoded", result.Counters.Geocoded),
		zap.Int("resolved", result.Counters.Resolved()),
		zap.Int("entries", acc.Len()),
	)

	_ = p.advance(ctx, model.RunStateWriting)
	entries := acc.Entries()
	result.Entries = len(entries)
	result.Writes = export.WriteAll(p.cfg.Targets, entries)

	_ = p.advance(ctx, model.RunStateDone)
	return result
}

func (p *Pipeline) createRun(ctx context.Context) {
	if p.store == nil {
		return
	}
	rec, err := p.store.CreateRun(context.WithoutCancel(ctx), p.cfg.Query, p.cfg.Backend)
	if err != nil {
		zap.L().Warn("pipeline: failed to create run record", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.runID = rec.ID
	p.mu.Unlock()
}

func (p *Pipeline) finishRun(ctx context.Context, result *model.RunResult) {
	runID := p.RunID()
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.UpdateRunResult(context.WithoutCancel(ctx), runID, result); err != nil {
		zap.L().Warn("pipeline: failed to save run result", zap.String("run_id", runID), zap.Error(err))
	}
}
