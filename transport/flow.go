package transport

import (
	"log"
	"sync/atomic"

	proto "github.com/ystepanoff/ymstream/protocol"
)

type flowState uint8

const (
	flowIdle flowState = iota
	flowSendHi
	flowSendLo
)

// FlowController announces free buffer space to the host once the previous
// chunk is complete, then re-arms the receiver. It runs in the main loop and
// only ever sends a byte when the port reports it is ready.
type FlowController struct {
	rx     *Receiver
	buf    *RingBuffer
	port   SerialPort
	width  proto.CreditWidth
	logger *log.Logger

	state  flowState
	credit int

	announced atomic.Uint32
}

func NewFlowController(rx *Receiver, buf *RingBuffer, port SerialPort, width proto.CreditWidth) *FlowController {
	return &FlowController{
		rx:    rx,
		buf:   buf,
		port:  port,
		width: width,
	}
}

// Poll advances the announcement as far as the port allows and reports
// whether anything happened.
func (f *FlowController) Poll() bool {
	progress := false
	for f.step() {
		progress = true
	}
	return progress
}

func (f *FlowController) step() bool {
	switch f.state {
	case flowIdle:
		if f.rx.State() != RxComplete {
			return false
		}
		// Free space only grows until the receiver is re-armed, so this
		// figure stays a safe upper bound for the chunk that follows.
		free := f.buf.Free()
		if free == 0 {
			return false
		}
		f.credit = f.width.Clamp(free)
		if f.width == proto.CreditWide {
			f.state = flowSendHi
		} else {
			f.state = flowSendLo
		}
		return true

	case flowSendHi:
		if !f.port.TxReady() {
			return false
		}
		f.port.Transmit(byte(f.credit >> 8))
		f.state = flowSendLo
		return true

	case flowSendLo:
		if !f.port.TxReady() {
			return false
		}
		// The host answers only after the last credit byte, so arming
		// first means its size request can never find the receiver idle.
		f.rx.Arm(f.credit)
		f.port.Transmit(byte(f.credit))
		f.state = flowIdle
		f.announced.Add(1)
		if f.logger != nil {
			f.logger.Printf("[Flow] credit %d announced\r\n", f.credit)
		}
		return true
	}
	return false
}

// Announced returns the number of completed credit announcements.
func (f *FlowController) Announced() uint32 { return f.announced.Load() }
