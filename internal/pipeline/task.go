package pipeline

import (
	"context"

	"github.com/sells-group/geopost/internal/model"
)

// Task is a run executing in the background.
type Task struct {
	done   chan struct{}
	result *model.RunResult
}

// Start runs the pipeline on its own goroutine.
func (p *Pipeline) Start(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result = p.Run(ctx)
	}()
	return t
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes and returns its result.
func (t *Task) Wait() *model.RunResult {
	<-t.done
	return t.result
}
