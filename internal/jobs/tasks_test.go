package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskGroupCancelCarriesCause(t *testing.T) {
	g := newTaskGroup()
	cause := errors.New("stop")
	got := make(chan error, 1)

	require.NoError(t, g.start(context.Background(), "a", func(ctx context.Context) {
		<-ctx.Done()
		got <- context.Cause(ctx)
	}))
	assert.Equal(t, 1, g.running())
	assert.True(t, g.cancel("a", cause))
	assert.ErrorIs(t, <-got, cause)

	require.NoError(t, g.wait(context.Background()))
	assert.Zero(t, g.running())
	assert.False(t, g.cancel("a", cause))
}

func TestTaskGroupCloseRejectsNewWork(t *testing.T) {
	g := newTaskGroup()
	release := make(chan struct{})
	require.NoError(t, g.start(context.Background(), "a", func(ctx context.Context) { <-ctx.Done() }))
	require.NoError(t, g.start(context.Background(), "b", func(context.Context) { <-release }))

	g.close(errors.New("shutdown"))
	assert.ErrorIs(t, g.start(context.Background(), "c", func(context.Context) {}), ErrShuttingDown)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, g.wait(context.Background()))
}
