package pool

import (
	"sort"
	"sync"

	"github.com/opd-ai/meshchat/limits"
	"github.com/sirupsen/logrus"
)

// DefaultSize is the capacity used by GetDefault.
const DefaultSize = limits.DefaultBufferSize

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Idle   int
	Hits   uint64
	Misses uint64
	Drops  uint64
}

// Pool retains up to maxSize idle buffers sorted ascending by capacity.
// It is safe for concurrent use.
type Pool struct {
	maxSize     int
	defaultSize int

	mu      sync.Mutex
	storage []*Buffer
	hits    uint64
	misses  uint64
	drops   uint64
}

// New creates a pool retaining at most maxSize idle buffers.
// A non-positive maxSize yields a pool that never retains anything.
func New(maxSize int) *Pool {
	return NewWithDefault(maxSize, DefaultSize)
}

// NewWithDefault creates a pool whose GetDefault hands out buffers of defaultSize.
func NewWithDefault(maxSize, defaultSize int) *Pool {
	if maxSize < 0 {
		maxSize = 0
	}
	if defaultSize <= 0 {
		defaultSize = DefaultSize
	}

	logrus.WithFields(logrus.Fields{
		"function":     "pool.New",
		"max_size":     maxSize,
		"default_size": defaultSize,
	}).Debug("Creating buffer pool")

	return &Pool{
		maxSize:     maxSize,
		defaultSize: defaultSize,
		storage:     make([]*Buffer, 0, maxSize),
	}
}

// MaxSize returns the maximum number of idle buffers the pool retains.
func (p *Pool) MaxSize() int {
	return p.maxSize
}

// DefaultBufferSize returns the capacity used when no size is requested.
func (p *Pool) DefaultBufferSize() int {
	return p.defaultSize
}

// Len returns the number of idle buffers currently held.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.storage)
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Idle:   len(p.storage),
		Hits:   p.hits,
		Misses: p.misses,
		Drops:  p.drops,
	}
}

// Get returns a buffer suitable for size bytes. It never fails.
func (p *Pool) Get(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return p.get(size, false)
}

// GetDefault returns a buffer for a caller that accepts any capacity.
// It prefers a buffer of the default size but falls back to the smallest
// idle buffer before allocating.
func (p *Pool) GetDefault() *Buffer {
	return p.get(p.defaultSize, true)
}

// GetWithGuard acquires a buffer for size bytes tied to a guard.
func (p *Pool) GetWithGuard(size int) *Guard {
	return &Guard{owner: p, buf: p.Get(size)}
}

// GetDefaultWithGuard acquires a default buffer tied to a guard.
func (p *Pool) GetDefaultWithGuard() *Guard {
	return &Guard{owner: p, buf: p.GetDefault()}
}

func (p *Pool) get(size int, anySize bool) *Buffer {
	p.mu.Lock()
	index := p.search(size)
	if index >= len(p.storage) || p.storage[index].Cap() != size {
		// Skip the nearest larger candidate.
		index++
		if index >= len(p.storage) {
			if !anySize || len(p.storage) == 0 {
				p.misses++
				p.mu.Unlock()

				logrus.WithFields(logrus.Fields{
					"function": "Pool.Get",
					"size":     size,
				}).Debug("No pooled buffer fits, allocating")

				return NewBuffer(size)
			}
			index = 0
		}
	}

	buf := p.storage[index]
	p.storage = append(p.storage[:index], p.storage[index+1:]...)
	p.hits++
	p.mu.Unlock()

	return buf
}

// Put returns buf to the pool. The buffer is dropped when the pool is full.
// The caller must not use buf after Put.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil || buf.Buffer == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if buf.Cap() > limits.MaxPackageSize {
		p.drops++
		logrus.WithFields(logrus.Fields{
			"function": "Pool.Put",
			"capacity": buf.Cap(),
			"limit":    limits.MaxPackageSize,
		}).Debug("Buffer grew past package limit, dropping")
		return
	}

	if len(p.storage) >= p.maxSize {
		p.drops++
		logrus.WithFields(logrus.Fields{
			"function": "Pool.Put",
			"capacity": buf.Cap(),
			"max_size": p.maxSize,
		}).Debug("Pool full, dropping buffer")
		return
	}

	buf.Reset()

	index := p.search(buf.Cap())
	p.storage = append(p.storage, nil)
	copy(p.storage[index+1:], p.storage[index:])
	p.storage[index] = buf
}

// search returns the index of the first idle buffer with capacity >= size.
// Must be called with p.mu held.
func (p *Pool) search(size int) int {
	return sort.Search(len(p.storage), func(i int) bool {
		return p.storage[i].Cap() >= size
	})
}
