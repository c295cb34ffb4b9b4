//go:build tinygo || baremetal

package atmega

import (
	"device/avr"
	"runtime/interrupt"
	"runtime/volatile"
)

const ledPin = 5 // PB5

// Meter outputs on PB0-PB2, one per channel.
const meterMask = 0x07

var (
	meterLevels [3]volatile.Register8
	meterPhase  uint8
)

// ConfigureTimer runs Timer1 free in normal mode at 16 MHz / 8 = 2 MHz.
// Playback polls OCF1A; the compare interrupt stays disabled.
func ConfigureTimer() {
	avr.TCCR1A.Set(0)
	avr.TCCR1B.Set(avr.TCCR1B_CS11)
	avr.TIMSK1.ClearBits(avr.TIMSK1_OCIE1A)
	avr.TIFR1.Set(avr.TIFR1_OCF1A)
}

// ConfigureMeter starts a software PWM on Timer0 (CTC, 16 MHz / 8 / 64,
// about 31 kHz ticks, 8-bit phase stepped by 8 for a 980 Hz period).
func ConfigureMeter() {
	avr.DDRB.SetBits(meterMask)
	avr.PORTB.ClearBits(meterMask)
	avr.TCCR0A.Set(avr.TCCR0A_WGM01)
	avr.TCCR0B.Set(avr.TCCR0B_CS01)
	avr.OCR0A.Set(63)

	intr := interrupt.New(avr.IRQ_TIMER0_COMPA, func(interrupt.Interrupt) {
		meterPhase += 8
		out := uint8(0)
		for ch := range meterLevels {
			if meterLevels[ch].Get() > meterPhase {
				out |= 1 << ch
			}
		}
		avr.PORTB.Set(avr.PORTB.Get()&^meterMask | out)
	})
	intr.Enable()
	avr.TIMSK0.SetBits(avr.TIMSK0_OCIE0A)
}
