//go:build tinygo || baremetal

package atmega

import (
	"device/avr"
	"runtime/interrupt"

	proto "github.com/ystepanoff/ymstream/protocol"
	"github.com/ystepanoff/ymstream/transport"
)

// Driver provides a transport.Driver backed by the ATmega328P peripherals
// and a YM2149 wired to ports C and D. There is one USART, so there is one
// driver.
type Driver struct{}

var rxHandler transport.ReceiveHandler

func New() transport.Driver { return &Driver{} }

// Initialise configures the chip clock and bus, the UART, the playback timer,
// the level meter and the LED. The receive interrupt is enabled last.
func (d *Driver) Initialise() {
	avr.DDRB.SetBits(1 << ledPin)
	StartChipClock()
	ConfigureBus()
	ConfigureTimer()
	ConfigureMeter()
	ConfigureUART()

	intr := interrupt.New(avr.IRQ_USART_RX, func(interrupt.Interrupt) {
		// Status flags are only valid until UDR0 is read.
		status := avr.UCSR0A.Get()
		b := avr.UDR0.Get()

		fault := proto.FaultNone
		switch {
		case status&avr.UCSR0A_FE0 != 0:
			fault = proto.FaultFraming
		case status&avr.UCSR0A_DOR0 != 0:
			fault = proto.FaultOverrun
		case status&avr.UCSR0A_UPE0 != 0:
			fault = proto.FaultParity
		}
		if h := rxHandler; h != nil {
			h(b, fault)
		}
	})
	intr.Enable()
	avr.UCSR0B.SetBits(avr.UCSR0B_RXCIE0)
}

func (d *Driver) SetReceiveHandler(h transport.ReceiveHandler) {
	state := interrupt.Disable()
	rxHandler = h
	interrupt.Restore(state)
}

func (d *Driver) TxReady() bool { return avr.UCSR0A.HasBits(avr.UCSR0A_UDRE0) }

func (d *Driver) Transmit(b byte) { avr.UDR0.Set(b) }

func (d *Driver) Send(addr, value byte) { WriteRegister(addr, value) }

func (d *Driver) Read(addr byte) byte { return ReadRegister(addr) }

func (d *Driver) Schedule(at uint16) {
	// High byte first: it is latched in TEMP until the low byte is written.
	avr.OCR1AH.Set(uint8(at >> 8))
	avr.OCR1AL.Set(uint8(at))
	avr.TIFR1.Set(avr.TIFR1_OCF1A)
}

func (d *Driver) Matched() bool { return avr.TIFR1.HasBits(avr.TIFR1_OCF1A) }

func (d *Driver) SetLevel(channel int, level uint8) {
	if channel >= 0 && channel < len(meterLevels) {
		meterLevels[channel].Set(level)
	}
}

// SetLED shares PORTB with the meter interrupt.
func (d *Driver) SetLED(on bool) {
	state := interrupt.Disable()
	defer interrupt.Restore(state)
	if on {
		avr.PORTB.SetBits(1 << ledPin)
	} else {
		avr.PORTB.ClearBits(1 << ledPin)
	}
}

// ConfigureUART sets 1 Mbaud 8-N-1 from the 16 MHz system clock.
func ConfigureUART() {
	avr.UBRR0H.Set(0)
	avr.UBRR0L.Set(0)
	avr.UCSR0A.ClearBits(avr.UCSR0A_U2X0)
	avr.UCSR0C.Set(avr.UCSR0C_UCSZ01 | avr.UCSR0C_UCSZ00)
	avr.UCSR0B.SetBits(avr.UCSR0B_TXEN0 | avr.UCSR0B_RXEN0)
}
