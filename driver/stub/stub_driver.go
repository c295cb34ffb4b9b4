//go:build !tinygo && !baremetal

package stub

import (
	"io"
	"sync"
	"time"

	"github.com/valyala/fastrand"

	proto "github.com/ystepanoff/ymstream/protocol"
	"github.com/ystepanoff/ymstream/transport"
)

// TimerMode selects how the simulated compare timer fires.
type TimerMode uint8

const (
	TimerAuto     TimerMode = iota // every scheduled timestamp is already due
	TimerManual                    // fires only on Fire
	TimerRealtime                  // 16-bit counter running at proto.TimerClock
)

// Driver implements a simulated device for host-side testing. The host end
// of its serial line is available through Host; bytes written there reach the
// receive handler one at a time, serialised as the interrupt would be.
type Driver struct {
	mu   sync.Mutex
	cond *sync.Cond
	isr  sync.Mutex

	handler  transport.ReceiveHandler
	tx       []byte
	closed   bool
	txJitter bool

	regs   [proto.RegisterCount]byte
	writes []proto.RegWrite

	mode      TimerMode
	epoch     time.Time
	compare   uint16
	armedAt   time.Time
	armedWait uint16
	matched   bool

	levels [3]uint8
	led    bool
}

func New() *Driver {
	d := &Driver{epoch: time.Now()}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *Driver) Initialise() {}

func (d *Driver) SetReceiveHandler(h transport.ReceiveHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = h
}

// TxReady reports a busy transmitter on random polls when jitter is enabled.
func (d *Driver) TxReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.txJitter || fastrand.Uint32n(4) != 0
}

func (d *Driver) Transmit(b byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tx = append(d.tx, b)
	d.cond.Broadcast()
}

func (d *Driver) Send(addr, value byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[addr&0x0F] = value
	d.writes = append(d.writes, proto.RegWrite{Addr: addr, Value: value})
}

func (d *Driver) Read(addr byte) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr&0x0F]
}

func (d *Driver) Schedule(at uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	d.compare = at
	d.armedAt = now
	d.armedWait = at - d.counter(now)
	d.matched = d.mode == TimerAuto
}

func (d *Driver) Matched() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode == TimerRealtime && !d.matched {
		elapsed := time.Since(d.armedAt).Seconds() * proto.TimerClock
		d.matched = elapsed >= float64(d.armedWait)
	}
	return d.matched
}

func (d *Driver) SetLevel(channel int, level uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.levels[channel] = level
}

func (d *Driver) SetLED(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.led = on
}

// counter returns the simulated free-running timer value at t.
func (d *Driver) counter(t time.Time) uint16 {
	return uint16(uint64(t.Sub(d.epoch).Seconds() * proto.TimerClock))
}

// Simulation controls

func (d *Driver) SetTimerMode(m TimerMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = m
}

func (d *Driver) SetTxJitter(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txJitter = on
}

// Fire raises the compare match flag.
func (d *Driver) Fire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matched = true
}

func (d *Driver) Compare() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.compare
}

func (d *Driver) GetWrites() []proto.RegWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]proto.RegWrite, len(d.writes))
	copy(out, d.writes)
	return out
}

func (d *Driver) Registers() [proto.RegisterCount]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs
}

func (d *Driver) Levels() [3]uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.levels
}

func (d *Driver) LED() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// InjectFault delivers b flagged with a link fault.
func (d *Driver) InjectFault(b byte, fault proto.Fault) { d.receive(b, fault) }

func (d *Driver) receive(b byte, fault proto.Fault) {
	d.isr.Lock()
	defer d.isr.Unlock()
	d.mu.Lock()
	h := d.handler
	d.mu.Unlock()
	if h != nil {
		h(b, fault)
	}
}

// Host returns the host end of the simulated serial line.
func (d *Driver) Host() io.ReadWriteCloser { return &hostEnd{d: d} }

type hostEnd struct{ d *Driver }

func (h *hostEnd) Write(p []byte) (int, error) {
	for i, b := range p {
		h.d.mu.Lock()
		closed := h.d.closed
		h.d.mu.Unlock()
		if closed {
			return i, io.ErrClosedPipe
		}
		h.d.receive(b, proto.FaultNone)
	}
	return len(p), nil
}

func (h *hostEnd) Read(p []byte) (int, error) {
	d := h.d
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.tx) == 0 && !d.closed {
		d.cond.Wait()
	}
	if len(d.tx) == 0 {
		return 0, io.EOF
	}
	n := copy(p, d.tx)
	d.tx = d.tx[n:]
	return n, nil
}

func (h *hostEnd) Close() error {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	h.d.closed = true
	h.d.cond.Broadcast()
	return nil
}
