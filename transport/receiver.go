package transport

import (
	"sync/atomic"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// RxState is the chunk reception state.
type RxState uint32

const (
	RxWaitSizeHi RxState = iota
	RxWaitSizeLo
	RxInProgress
	RxComplete
)

func (s RxState) String() string {
	switch s {
	case RxWaitSizeHi:
		return "WAIT_SIZE_HI"
	case RxWaitSizeLo:
		return "WAIT_SIZE_LO"
	case RxInProgress:
		return "IN_PROGRESS"
	case RxComplete:
		return "COMPLETE"
	}
	return "UNKNOWN"
}

// Receiver frames incoming bytes into chunks and appends the payload to the
// ring buffer. HandleByte runs in interrupt context: it never blocks, never
// logs and never touches the buffer's read cursor.
//
// State and credit cross contexts and are atomics. size and count are only
// touched by the interrupt, except in Arm, which runs while the state is
// RxComplete and publishes them through the state store.
type Receiver struct {
	buf   *RingBuffer
	port  SerialPort
	width proto.CreditWidth

	state  atomic.Uint32
	credit atomic.Uint32 // last credit announced to the host

	size  int
	count int

	chunks     atomic.Uint32
	bytes      atomic.Uint32
	rejected   atomic.Uint32
	linkFaults atomic.Uint32
	stray      atomic.Uint32
	dropped    atomic.Uint32
}

func NewReceiver(buf *RingBuffer, port SerialPort, width proto.CreditWidth) *Receiver {
	r := &Receiver{
		buf:   buf,
		port:  port,
		width: width,
	}
	r.state.Store(uint32(RxComplete))
	return r
}

func (r *Receiver) State() RxState { return RxState(r.state.Load()) }

// Credit returns the credit the pending size request is checked against.
func (r *Receiver) Credit() int { return int(r.credit.Load()) }

// Arm re-enables reception after credit has been announced. It must only be
// called from the main loop while the state is RxComplete.
func (r *Receiver) Arm(credit int) {
	r.credit.Store(uint32(credit))
	r.size = 0
	r.count = 0
	if r.width == proto.CreditNarrow {
		r.state.Store(uint32(RxWaitSizeLo))
		return
	}
	r.state.Store(uint32(RxWaitSizeHi))
}

// HandleByte consumes one received byte. fault is the link-layer status the
// port latched for it.
func (r *Receiver) HandleByte(b byte, fault proto.Fault) {
	switch RxState(r.state.Load()) {
	case RxWaitSizeHi:
		if fault != proto.FaultNone {
			r.abort(b, fault)
			return
		}
		r.size = int(b) << 8
		r.state.Store(uint32(RxWaitSizeLo))

	case RxWaitSizeLo:
		if fault != proto.FaultNone {
			r.abort(b, fault)
			return
		}
		r.size |= int(b)
		r.startChunk()

	case RxInProgress:
		if fault != proto.FaultNone {
			r.linkFaults.Add(1)
		}
		if r.buf.Full() {
			r.dropped.Add(1)
		} else {
			r.buf.Put(b)
			r.bytes.Add(1)
		}
		if r.count++; r.count >= r.size {
			r.chunks.Add(1)
			r.state.Store(uint32(RxComplete))
		}

	default:
		r.stray.Add(1)
	}
}

// Status bytes that end the attempt go out before RxComplete is published,
// so a new credit announcement can never overtake them.
func (r *Receiver) startChunk() {
	if r.size > int(r.credit.Load()) {
		r.rejected.Add(1)
		r.port.Transmit(proto.StatusRejected)
		r.state.Store(uint32(RxComplete))
		return
	}
	if r.size == 0 {
		r.port.Transmit(proto.StatusAccepted)
		r.chunks.Add(1)
		r.state.Store(uint32(RxComplete))
		return
	}
	// Ready for payload before the host can see the acknowledgement.
	r.count = 0
	r.state.Store(uint32(RxInProgress))
	r.port.Transmit(proto.StatusAccepted)
}

// abort reports a link fault on a size byte and abandons the chunk attempt.
// The port's transmitter is double buffered, so both bytes fit without waiting.
func (r *Receiver) abort(b byte, fault proto.Fault) {
	r.linkFaults.Add(1)
	r.port.Transmit(fault.Status())
	r.port.Transmit(b)
	r.state.Store(uint32(RxComplete))
}
