package jobs

import (
	"context"
	"errors"
	"sync"
)

// ErrShuttingDown rejects new work once Shutdown has begun.
var ErrShuttingDown = errors.New("jobs: orchestrator is shutting down")

// taskGroup tracks running jobs so they can be cancelled one by one or all
// together, and so shutdown can wait for them.
type taskGroup struct {
	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc
	closed  bool
	wg      sync.WaitGroup
}

func newTaskGroup() *taskGroup {
	return &taskGroup{cancels: map[string]context.CancelCauseFunc{}}
}

// start runs fn in a goroutine with a context derived from base.
func (g *taskGroup) start(base context.Context, id string, fn func(ctx context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrShuttingDown
	}
	ctx, cancel := context.WithCancelCause(base)
	g.cancels[id] = cancel
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.finish(id)
		fn(ctx)
	}()
	return nil
}

func (g *taskGroup) finish(id string) {
	g.mu.Lock()
	cancel, ok := g.cancels[id]
	delete(g.cancels, id)
	g.mu.Unlock()
	if ok {
		cancel(nil)
	}
}

// cancel reports whether a running task with that id was found.
func (g *taskGroup) cancel(id string, cause error) bool {
	g.mu.Lock()
	cancel, ok := g.cancels[id]
	g.mu.Unlock()
	if ok {
		cancel(cause)
	}
	return ok
}

func (g *taskGroup) running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cancels)
}

// close refuses new tasks and cancels every running one with cause.
func (g *taskGroup) close(cause error) {
	g.mu.Lock()
	g.closed = true
	cancels := make([]context.CancelCauseFunc, 0, len(g.cancels))
	for _, c := range g.cancels {
		cancels = append(cancels, c)
	}
	g.mu.Unlock()
	for _, c := range cancels {
		c(cause)
	}
}

// wait blocks until every task returned or ctx is done.
func (g *taskGroup) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
