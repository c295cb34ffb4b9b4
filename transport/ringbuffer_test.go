package transport

import (
	"runtime"
	"sync"
	"testing"

	"github.com/valyala/fastrand"
)

func checkInvariants(t *testing.T, rb *RingBuffer) {
	t.Helper()
	if rb.Len()+rb.Free() != rb.Cap() {
		t.Fatalf("Len()+Free() = %d+%d, want %d", rb.Len(), rb.Free(), rb.Cap())
	}
	if rb.Full() && rb.Empty() {
		t.Fatal("buffer both full and empty")
	}
}

func TestRingBufferInit(t *testing.T) {
	rb := NewRingBuffer(8)
	if !rb.Empty() {
		t.Error("new buffer not empty")
	}
	if rb.Full() {
		t.Error("new buffer full")
	}
	if rb.Cap() != 7 || rb.Free() != 7 || rb.Len() != 0 {
		t.Errorf("Cap/Free/Len = %d/%d/%d, want 7/7/0", rb.Cap(), rb.Free(), rb.Len())
	}
}

func TestRingBufferFillToFull(t *testing.T) {
	rb := NewRingBuffer(8)

	// Round trip keeps the buffer empty while moving the cursors around.
	for i := 0; i < 5; i++ {
		rb.Put(byte(i))
		if got := rb.Get(); got != byte(i) {
			t.Fatalf("Get() = %d, want %d", got, i)
		}
		checkInvariants(t, rb)
	}

	for i := 0; i < rb.Cap(); i++ {
		if rb.Full() {
			t.Fatalf("buffer full after %d puts", i)
		}
		rb.Put(byte(0xA0 + i))
		checkInvariants(t, rb)
	}
	if !rb.Full() || rb.Free() != 0 || rb.Len() != 7 {
		t.Fatalf("Full/Free/Len = %v/%d/%d, want true/0/7", rb.Full(), rb.Free(), rb.Len())
	}

	for i := 0; i < 7; i++ {
		if got := rb.Get(); got != byte(0xA0+i) {
			t.Fatalf("Get() = %#x, want %#x (FIFO violated)", got, 0xA0+i)
		}
	}
	if !rb.Empty() {
		t.Error("buffer not empty after draining")
	}
}

// Random interleavings of puts and gets that respect the preconditions.
func TestRingBufferRandomOps(t *testing.T) {
	for _, size := range []int{2, 3, 8, 255, 1024} {
		rb := NewRingBuffer(size)
		var model []byte

		for i := 0; i < 20000; i++ {
			if fastrand.Uint32n(2) == 0 {
				if rb.Full() {
					continue
				}
				b := byte(fastrand.Uint32())
				rb.Put(b)
				model = append(model, b)
			} else {
				if rb.Empty() {
					continue
				}
				got := rb.Get()
				if got != model[0] {
					t.Fatalf("size %d: Get() = %#x, want %#x", size, got, model[0])
				}
				model = model[1:]
			}
			checkInvariants(t, rb)
			if rb.Len() != len(model) {
				t.Fatalf("size %d: Len() = %d, want %d", size, rb.Len(), len(model))
			}
			if rb.Empty() != (len(model) == 0) {
				t.Fatalf("size %d: Empty() = %v with %d queued", size, rb.Empty(), len(model))
			}
		}
	}
}

// One producer, one consumer, each only touching its own cursor.
func TestRingBufferConcurrent(t *testing.T) {
	const N = 200_000
	rb := NewRingBuffer(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < N; i++ {
			for rb.Full() {
				runtime.Gosched()
			}
			rb.Put(byte(i))
		}
	}()

	for i := 0; i < N; i++ {
		for rb.Empty() {
			runtime.Gosched()
		}
		if got := rb.Get(); got != byte(i) {
			t.Fatalf("expected %d, got %d (FIFO violated)", byte(i), got)
		}
		if n := rb.Len(); n < 0 || n > rb.Cap() {
			t.Fatalf("Len() = %d out of range", n)
		}
	}
	wg.Wait()

	if !rb.Empty() {
		t.Fatal("buffer not empty at the end")
	}
}

func TestNewRingBufferPanics(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 1<<16 + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewRingBuffer(%d) did not panic", n)
				}
			}()
			NewRingBuffer(n)
		}()
	}
}
