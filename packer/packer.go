package packer

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/meshchat/limits"
	"github.com/opd-ai/meshchat/pool"
	"github.com/sirupsen/logrus"
)

// Factory returns a new, empty package value for decoding into.
type Factory func() Package

// Option customizes a Packer.
type Option func(*Packer)

// WithCodec sets the payload codec.
func WithCodec(c Codec) Option {
	return func(p *Packer) {
		if c != nil {
			p.codec = c
		}
	}
}

// Packer serializes packages into pooled buffers and decodes bytes back into
// registered package types. It is safe for concurrent use.
type Packer struct {
	pool  *pool.Pool
	codec Codec

	mu        sync.RWMutex
	factories map[int64]Factory
}

// New creates a packer drawing buffers from bufferPool.
func New(bufferPool *pool.Pool, opts ...Option) *Packer {
	if bufferPool == nil {
		bufferPool = pool.New(limits.DefaultMaxPoolSize)
	}
	p := &Packer{
		pool:      bufferPool,
		codec:     JSONCodec{},
		factories: make(map[int64]Factory),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pool returns the buffer pool the packer draws from.
func (p *Packer) Pool() *pool.Pool {
	return p.pool
}

// Register makes packages with the given id decodable.
func (p *Packer) Register(id int64, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("register package %d: factory is nil", id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.factories[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicatePackage, id)
	}
	p.factories[id] = factory
	return nil
}

// Registered returns the registered package ids in ascending order.
func (p *Packer) Registered() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]int64, 0, len(p.factories))
	for id := range p.factories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Pack serializes pkg into a pooled buffer. The returned unit owns that buffer;
// call Dispose once the bytes have been sent.
func (p *Packer) Pack(pkg Package) (*Unpacked[Package], error) {
	if pkg == nil {
		return nil, ErrNilPackage
	}

	guard := p.pool.GetDefaultWithGuard()
	defer guard.Close()

	buf := guard.Buffer()
	var header [limits.HeaderSize]byte
	binary.BigEndian.PutUint64(header[:], uint64(pkg.ID()))
	buf.Write(header[:])

	if err := p.codec.Marshal(buf, pkg); err != nil {
		return nil, fmt.Errorf("pack package %d: %w", pkg.ID(), err)
	}
	if err := limits.ValidatePackageSize(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("pack package %d: %w", pkg.ID(), err)
	}

	owned, err := guard.Detach()
	if err != nil {
		return nil, err
	}
	return NewPooled[Package](p.pool, pkg, owned), nil
}

// Unpack decodes a pooled buffer. On success the returned unit owns buf.
// On failure the error is a *DecodeError and the caller still owns buf.
func (p *Packer) Unpack(buf *pool.Buffer) (*Unpacked[Package], error) {
	if buf == nil || buf.Buffer == nil {
		return nil, &DecodeError{Reason: "no data", Err: ErrNilBuffer}
	}

	pkg, err := p.decode(buf.Bytes())
	if err != nil {
		return nil, err
	}
	return NewPooled(p.pool, pkg, buf), nil
}

// UnpackBytes decodes independent bytes into a raw-backed unit holding its own
// copy of data.
func (p *Packer) UnpackBytes(data []byte) (*Unpacked[Package], error) {
	pkg, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return NewRaw(pkg, raw), nil
}

func (p *Packer) decode(data []byte) (Package, error) {
	if err := limits.ValidatePackageSize(data); err != nil {
		return nil, p.decodeFailure(&DecodeError{Reason: "invalid size", Err: err}, len(data))
	}

	id, derr := peekID(data)
	if derr != nil {
		return nil, p.decodeFailure(derr, len(data))
	}

	p.mu.RLock()
	factory, exists := p.factories[id]
	p.mu.RUnlock()
	if !exists {
		return nil, p.decodeFailure(&DecodeError{ID: id, Reason: "unregistered type", Err: ErrUnknownPackage}, len(data))
	}

	pkg := factory()
	if err := p.codec.Unmarshal(data[limits.HeaderSize:], pkg); err != nil {
		return nil, p.decodeFailure(&DecodeError{ID: id, Reason: "malformed payload", Err: err}, len(data))
	}
	if pkg.ID() != id {
		return nil, p.decodeFailure(&DecodeError{
			ID:     id,
			Reason: fmt.Sprintf("factory produced package %d", pkg.ID()),
		}, len(data))
	}
	return pkg, nil
}

func (p *Packer) decodeFailure(err *DecodeError, size int) error {
	logrus.WithFields(logrus.Fields{
		"function":   "Packer.Unpack",
		"package_id": err.ID,
		"size":       size,
		"error":      err.Error(),
	}).Warn("Failed to decode package")
	return err
}

// PeekID reads the package id from the envelope header without decoding the payload.
func PeekID(data []byte) (int64, error) {
	id, derr := peekID(data)
	if derr != nil {
		return 0, derr
	}
	return id, nil
}

func peekID(data []byte) (int64, *DecodeError) {
	if len(data) < limits.HeaderSize {
		return 0, &DecodeError{Reason: fmt.Sprintf("truncated header: %d of %d bytes", len(data), limits.HeaderSize)}
	}
	return int64(binary.BigEndian.Uint64(data[:limits.HeaderSize])), nil
}
