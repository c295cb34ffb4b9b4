package transport

import (
	"context"
	"fmt"
	"log"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// Config holds the build-time settings of a device.
type Config struct {
	BufferSize  int               // ring buffer slots, one is kept empty
	CreditWidth proto.CreditWidth // bytes per credit and size field
	// Logger receives main-loop diagnostics. Leave nil on hardware where the
	// only serial port carries the protocol.
	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		BufferSize:  proto.DefaultBufferSize,
		CreditWidth: proto.CreditWide,
	}
}

func (c Config) validate() error {
	if c.BufferSize < 2 || c.BufferSize > proto.MaxBufferSize {
		return fmt.Errorf("buffer size %d: %w", c.BufferSize, proto.ErrInvalidBufferSize)
	}
	if !c.CreditWidth.Valid() {
		return fmt.Errorf("credit width %d: %w", c.CreditWidth, proto.ErrInvalidWidth)
	}
	return nil
}

// Stats is a snapshot of the device counters.
type Stats struct {
	Credits       uint32 // credit announcements completed
	Chunks        uint32 // chunks fully received (including empty ones)
	Bytes         uint32 // payload bytes enqueued
	Rejected      uint32 // size requests above the announced credit
	LinkFaults    uint32 // framing, overrun and parity errors
	Stray         uint32 // bytes received with no chunk pending
	Dropped       uint32 // payload bytes that found the buffer full
	Frames        uint32 // frames played to completion
	Writes        uint32 // chip register writes
	CorruptFrames uint32 // frames skipped for an invalid address
}

// Device is the single context owning the buffer and the state machines.
// HandleRx is the interrupt entry point; Poll is one main loop iteration.
type Device struct {
	cfg    Config
	driver Driver
	logger *log.Logger

	buf    *RingBuffer
	rx     *Receiver
	flow   *FlowController
	player *Player

	chipOK bool
	ledOn  bool
}

func NewDeviceWithDriver(cfg Config, d Driver) (*Device, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	buf := NewRingBuffer(cfg.BufferSize)
	rx := NewReceiver(buf, d, cfg.CreditWidth)
	flow := NewFlowController(rx, buf, d, cfg.CreditWidth)
	flow.logger = cfg.Logger
	player := NewPlayer(buf, d, d, d)
	player.logger = cfg.Logger

	return &Device{
		cfg:    cfg,
		driver: d,
		logger: cfg.Logger,
		buf:    buf,
		rx:     rx,
		flow:   flow,
		player: player,
	}, nil
}

// Initialise brings up the peripherals, silences the chip and hooks the
// receiver to the serial interrupt. A chip that does not read back its mixer
// setting is reported but does not stop the device; the LED stays lit.
func (d *Device) Initialise() error {
	d.driver.Initialise()

	for reg := byte(0); reg < proto.RegPortA; reg++ {
		d.driver.Send(reg, 0)
	}
	d.driver.Send(proto.RegMixer, proto.MixerSilent)
	for ch := 0; ch < 3; ch++ {
		d.driver.SetLevel(ch, 0)
	}

	d.chipOK = d.driver.Read(proto.RegMixer) == proto.MixerSilent
	d.driver.SetReceiveHandler(d.HandleRx)

	if !d.chipOK {
		d.setLED(true)
		d.logf("[Device] mixer read back failed\r\n")
		return proto.ErrChipNotResponding
	}
	d.setLED(false)
	return nil
}

// HandleRx is called by the driver for every received byte.
func (d *Device) HandleRx(b byte, fault proto.Fault) { d.rx.HandleByte(b, fault) }

// Poll runs one main loop iteration: credit first, then playback.
func (d *Device) Poll() {
	d.flow.Poll()
	d.player.Poll()
	if d.chipOK {
		d.setLED(!d.buf.Empty())
	}
}

// Run polls until ctx is done.
func (d *Device) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.Poll()
	}
}

func (d *Device) Stats() Stats {
	return Stats{
		Credits:       d.flow.Announced(),
		Chunks:        d.rx.chunks.Load(),
		Bytes:         d.rx.bytes.Load(),
		Rejected:      d.rx.rejected.Load(),
		LinkFaults:    d.rx.linkFaults.Load(),
		Stray:         d.rx.stray.Load(),
		Dropped:       d.rx.dropped.Load(),
		Frames:        d.player.frames.Load(),
		Writes:        d.player.writes.Load(),
		CorruptFrames: d.player.corrupt.Load(),
	}
}

func (d *Device) Buffer() *RingBuffer { return d.buf }

func (d *Device) Receiver() *Receiver { return d.rx }

func (d *Device) Player() *Player { return d.player }

func (d *Device) Config() Config { return d.cfg }

func (d *Device) setLED(on bool) {
	if on == d.ledOn {
		return
	}
	d.ledOn = on
	d.driver.SetLED(on)
}

func (d *Device) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}
