package transport

import (
	"sync/atomic"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// RingBuffer is a fixed-capacity byte queue shared by exactly one producer
// (the receive interrupt) and one consumer (the main loop).
//
// One slot is always left empty so that first == last means empty and
// last one behind first means full. The producer is the only writer of last
// and of the cell at last; the consumer is the only writer of first.
// Cursors are atomics: on AVR the compiler lowers them to interrupt-masked
// accesses, so a 16-bit cursor is never observed half-written.
type RingBuffer struct {
	data  []byte
	size  uint32
	first atomic.Uint32 // next byte to read, owned by the consumer
	last  atomic.Uint32 // next slot to write, owned by the producer
}

// NewRingBuffer allocates a buffer of n slots (n-1 usable).
func NewRingBuffer(n int) *RingBuffer {
	if n < 2 || n > proto.MaxBufferSize {
		panic("ring buffer size must be in [2, 65536]")
	}
	return &RingBuffer{
		data: make([]byte, n),
		size: uint32(n),
	}
}

// Cap returns the number of usable slots.
func (rb *RingBuffer) Cap() int { return int(rb.size) - 1 }

// Len returns the number of queued bytes.
func (rb *RingBuffer) Len() int {
	first, last := rb.first.Load(), rb.last.Load()
	return int((last + rb.size - first) % rb.size)
}

// Free returns the number of bytes that can be put before the buffer is full.
func (rb *RingBuffer) Free() int {
	first, last := rb.first.Load(), rb.last.Load()
	return int((first + rb.size - last - 1) % rb.size)
}

func (rb *RingBuffer) Empty() bool { return rb.first.Load() == rb.last.Load() }

func (rb *RingBuffer) Full() bool {
	return rb.next(rb.last.Load()) == rb.first.Load()
}

// Put stores b and advances last. The caller must ensure the buffer is not full.
func (rb *RingBuffer) Put(b byte) {
	last := rb.last.Load()
	rb.data[last] = b
	rb.last.Store(rb.next(last))
}

// Get returns the oldest byte and advances first. The caller must ensure the
// buffer is not empty.
func (rb *RingBuffer) Get() byte {
	first := rb.first.Load()
	b := rb.data[first]
	rb.first.Store(rb.next(first))
	return b
}

func (rb *RingBuffer) next(i uint32) uint32 {
	if i++; i == rb.size {
		return 0
	}
	return i
}
