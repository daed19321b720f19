// Package packer bridges raw wire bytes and typed Package values while managing
// pooled buffer ownership.
//
// # Envelope
//
// Every packed package is laid out as
//
//	[package id (8 bytes, big-endian int64)][codec payload]
//
// The payload encoding is delegated to a Codec; JSONCodec is the default.
//
// # Ownership
//
// An Unpacked value pairs a Package with its backing bytes. The backing is one
// of two variants and never both:
//
//   - pooled: a pool.Buffer plus a back-reference to the owning pool. The unit
//     owns the buffer until Dispose returns it.
//   - raw: an independent byte slice that no pool knows about. Dispose is a no-op.
//
// Example:
//
//	p := packer.New(pool.New(limits.DefaultMaxPoolSize))
//	p.Register(ChatMessageID, func() packer.Package { return &ChatMessage{} })
//
//	unit, err := p.Pack(&ChatMessage{Text: "hi"})
//	if err != nil {
//	    return err
//	}
//	defer unit.Dispose()
//
//	send(unit.RawData())
//
// Unpack takes ownership of a pooled buffer only when decoding succeeds. On a
// DecodeError the caller still owns the buffer and must return it to the pool.
package packer
