package pool

import "sync"

// Guard couples a pooled buffer to a scope. Close returns the buffer to its pool
// exactly once, so it is safe to defer Close and also call it early.
type Guard struct {
	owner *Pool

	mu  sync.Mutex
	buf *Buffer
}

// Buffer returns the guarded buffer, or nil once the guard has been closed or detached.
func (g *Guard) Buffer() *Buffer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.buf
}

// Pool returns the pool the guarded buffer belongs to.
func (g *Guard) Pool() *Pool {
	return g.owner
}

// Detach hands ownership of the buffer to the caller. After Detach, Close is a no-op.
func (g *Guard) Detach() (*Buffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.buf == nil {
		return nil, ErrGuardDetached
	}
	buf := g.buf
	g.buf = nil
	return buf, nil
}

// Close returns the buffer to the pool. Repeated calls are no-ops.
func (g *Guard) Close() error {
	g.mu.Lock()
	buf := g.buf
	g.buf = nil
	g.mu.Unlock()

	if buf != nil {
		g.owner.Put(buf)
	}
	return nil
}
