package transport

import proto "github.com/ystepanoff/ymstream/protocol"

// ChipBus writes and reads sound chip registers. Implementations honour the
// chip's address setup and data hold times before returning.
type ChipBus interface {
	Send(addr, value byte)
	Read(addr byte) byte
}

// SerialPort is the transmit half of the serial link. Reception is delivered
// only through the handler registered with Driver.SetReceiveHandler.
type SerialPort interface {
	TxReady() bool
	Transmit(b byte)
}

// CompareTimer is a free-running timer with one compare channel.
type CompareTimer interface {
	// Schedule loads the compare value and clears any pending match.
	Schedule(at uint16)
	Matched() bool
}

// LevelMeter drives the per-channel level indicator.
type LevelMeter interface {
	SetLevel(channel int, level uint8)
}

// StatusLED is the on-board indicator.
type StatusLED interface {
	SetLED(on bool)
}

// ReceiveHandler is called once per received byte, from interrupt context on hardware.
type ReceiveHandler func(b byte, fault proto.Fault)

// Driver is the interface that wraps the peripherals the device needs.
type Driver interface {
	Initialise()
	SetReceiveHandler(h ReceiveHandler)
	ChipBus
	SerialPort
	CompareTimer
	LevelMeter
	StatusLED
}
