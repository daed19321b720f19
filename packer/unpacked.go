package packer

import (
	"sync"

	"github.com/opd-ai/meshchat/pool"
)

// Package is a decoded protocol message.
type Package interface {
	// ID is the stable numeric identifier used for dispatch.
	ID() int64
}

// backing is implemented by exactly two variants: pooledBacking and rawBacking.
type backing interface {
	bytes() []byte
	release()
	pooled() bool
}

type pooledBacking struct {
	owner *pool.Pool
	buf   *pool.Buffer
}

func (b *pooledBacking) bytes() []byte {
	if b.buf == nil {
		return nil
	}
	return b.buf.Bytes()
}

func (b *pooledBacking) release() {
	b.owner.Put(b.buf)
	b.buf = nil
}

func (b *pooledBacking) pooled() bool { return true }

type rawBacking struct {
	data []byte
}

func (b *rawBacking) bytes() []byte { return b.data }
func (b *rawBacking) release()      {}
func (b *rawBacking) pooled() bool  { return false }

// Unpacked pairs a package with the bytes it was decoded from or packed into.
// Construct it with NewPooled or NewRaw; the zero value is not usable.
type Unpacked[T Package] struct {
	pkg T

	mu       sync.Mutex
	backing  backing
	disposed bool
}

// NewPooled creates a unit owning buf, which is returned to owner on Dispose.
// It panics if owner or buf is nil.
func NewPooled[T Package](owner *pool.Pool, pkg T, buf *pool.Buffer) *Unpacked[T] {
	if owner == nil || buf == nil {
		panic("packer: NewPooled requires a pool and a buffer")
	}
	return &Unpacked[T]{
		pkg:     pkg,
		backing: &pooledBacking{owner: owner, buf: buf},
	}
}

// NewRaw creates a unit backed by independent bytes.
func NewRaw[T Package](pkg T, raw []byte) *Unpacked[T] {
	if raw == nil {
		raw = []byte{}
	}
	return &Unpacked[T]{
		pkg:     pkg,
		backing: &rawBacking{data: raw},
	}
}

// Package returns the decoded value.
func (u *Unpacked[T]) Package() T {
	return u.pkg
}

// RawData returns the backing bytes. A pooled unit returns nil once disposed.
// The slice aliases the backing storage and must not be retained past Dispose.
func (u *Unpacked[T]) RawData() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.backing.bytes()
}

// RawLength returns len(RawData()).
func (u *Unpacked[T]) RawLength() int {
	return len(u.RawData())
}

// IsPooled reports whether the unit is backed by a pool-owned buffer.
func (u *Unpacked[T]) IsPooled() bool {
	return u.backing.pooled()
}

// Disposed reports whether Dispose has been called.
func (u *Unpacked[T]) Disposed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.disposed
}

// Dispose returns a pooled buffer to its pool. It is idempotent and safe to call
// from several goroutines; the buffer is released exactly once.
func (u *Unpacked[T]) Dispose() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.disposed {
		return
	}
	u.disposed = true
	u.backing.release()
}

// Detach returns a raw-backed copy of the unit whose bytes are independent of
// any pool, suitable for persisting or handing to another process.
func (u *Unpacked[T]) Detach() *Unpacked[T] {
	data := u.RawData()
	raw := make([]byte, len(data))
	copy(raw, data)
	return NewRaw(u.pkg, raw)
}

// As returns the unit's package as a concrete type.
func As[T Package](u *Unpacked[Package]) (T, bool) {
	var zero T
	if u == nil {
		return zero, false
	}
	p, ok := u.pkg.(T)
	return p, ok
}
