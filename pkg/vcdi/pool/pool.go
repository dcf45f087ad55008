// Package pool provides scoped, zeroizing byte-buffer rental for the
// cryptographic hot path: signatures, combined signed-data tuples, and
// decoded proof values are all rented from here rather than allocated ad
// hoc, so every caller has a single, explicit release point.
package pool

import "sync"

// Pool rents and reclaims byte slices. The zero value is not usable; use
// New.
type Pool struct {
	sp sync.Pool
}

// New creates a pool. capacity is advisory: it sizes the slices handed out
// by Rent before growth, it does not bound how many Buffers may be live at
// once.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 64
	}
	return &Pool{
		sp: sync.Pool{
			New: func() any {
				b := make([]byte, 0, capacity)
				return &b
			},
		},
	}
}

// Buffer is a rented, scoped byte slice. Every Buffer must be released by
// its single owner on every exit path, including error paths.
type Buffer struct {
	pool *Pool
	buf  []byte
}

// Rent returns a Buffer with length n, zero-filled. The caller owns it
// until Release.
func (p *Pool) Rent(n int) *Buffer {
	bp := p.sp.Get().(*[]byte)
	b := *bp
	if cap(b) < n {
		b = make([]byte, n)
	} else {
		b = b[:n]
		for i := range b {
			b[i] = 0
		}
	}
	return &Buffer{pool: p, buf: b}
}

// Wrap adopts an existing slice as a rented Buffer, so call sites that
// receive bytes from a delegate (signing, encoding) still get a single
// release point instead of mixing owned and rented memory.
func (p *Pool) Wrap(b []byte) *Buffer {
	return &Buffer{pool: p, buf: b}
}

// Bytes exposes the rented slice. Valid only until Release.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Release zeroizes the buffer and returns its backing array to the pool.
// Safe to call more than once; the second call is a no-op.
func (b *Buffer) Release() {
	if b == nil || b.buf == nil {
		return
	}
	for i := range b.buf {
		b.buf[i] = 0
	}
	backing := b.buf[:0]
	b.pool.sp.Put(&backing)
	b.buf = nil
}
