// Package pool implements a thread-safe pool of reusable byte buffers bucketed by capacity.
//
// Idle buffers are kept in a slice sorted ascending by capacity. Get performs a
// nearest-fit search: an exact capacity match is preferred; otherwise the search
// skips the nearest larger candidate and hands out the one after it. When nothing
// fits, a fresh buffer is allocated, so Get never fails. Put returns a buffer to
// the pool with its length reset to zero, or drops it when the pool already holds
// MaxSize buffers.
//
// Example:
//
//	p := pool.New(limits.DefaultMaxPoolSize)
//
//	g := p.GetWithGuard(4096)
//	defer g.Close()
//
//	buf := g.Buffer()
//	buf.Write(payload)
//
// A Guard returns its buffer exactly once, on every exit path, and can hand its
// buffer off with Detach when ownership moves elsewhere.
package pool
