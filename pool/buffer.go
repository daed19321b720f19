package pool

import "bytes"

// Buffer is a byte container with an allocated capacity and a logical length.
// The capacity of a buffer does not change while it sits idle in a pool.
type Buffer struct {
	*bytes.Buffer
}

// NewBuffer allocates an empty buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{Buffer: bytes.NewBuffer(make([]byte, 0, capacity))}
}

// WrapBytes wraps data in a buffer whose logical content is data.
// The buffer takes ownership of data.
func WrapBytes(data []byte) *Buffer {
	return &Buffer{Buffer: bytes.NewBuffer(data)}
}
