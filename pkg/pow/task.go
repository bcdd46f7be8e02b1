package pow

import (
	"context"
)

// Task is a nonce search running in a separate goroutine.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	nonce  uint32
	err    error
}

// Start launches nonce search for the request. Invalid requests (including
// too high difficulty) produce a task that is already finished with an error,
// no search is started for them. Search stops when ctx is done.
func Start(ctx context.Context, r Request) *Task {
	t := &Task{done: make(chan struct{})}
	if err := r.validate(); err != nil {
		t.err = err
		t.cancel = func() {}
		close(t.done)
		return t
	}
	ctx, t.cancel = context.WithCancel(ctx)
	go func() {
		defer close(t.done)
		t.nonce, t.err = Mine(ctx, r)
	}()
	return t
}

// Done returns a channel that is closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns search result. It must only be called after Done is closed.
func (t *Task) Result() (uint32, error) {
	return t.nonce, t.err
}

// Cancel stops the search.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done, in the latter case the
// search is cancelled.
func (t *Task) Wait(ctx context.Context) (uint32, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		t.cancel()
		<-t.done
		return 0, ctx.Err()
	}
}
