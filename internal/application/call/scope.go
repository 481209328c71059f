package call

import (
	"context"
	"sync"
	"time"
)

// scopeCloseTimeout bounds how long closing a scope waits for background work
const scopeCloseTimeout = 5 * time.Second

// Scope ties a Controller to the lifetime of its host. Closing the scope,
// explicitly or by cancelling the context it was opened with, ends any live
// call and releases its media.
type Scope struct {
	controller *Controller
	stop       func() bool
	once       sync.Once
	done       chan struct{}
}

// Open returns a scope around c that closes itself when ctx is done
func Open(ctx context.Context, c *Controller) *Scope {
	s := &Scope{controller: c, done: make(chan struct{})}
	s.stop = context.AfterFunc(ctx, s.close)
	return s
}

// Controller returns the scoped controller
func (s *Scope) Controller() *Controller {
	return s.controller
}

// Close ends the scope. Closing twice is a no-op.
func (s *Scope) Close() {
	s.stop()
	s.close()
}

// Done is closed once the scope has released everything it held
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

func (s *Scope) close() {
	s.once.Do(func() {
		defer close(s.done)
		ctx, cancel := context.WithTimeout(context.Background(), scopeCloseTimeout)
		defer cancel()
		s.controller.Close(ctx)
	})
}
