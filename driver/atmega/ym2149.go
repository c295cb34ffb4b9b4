//go:build tinygo || baremetal

package atmega

import "device/avr"

// Bus control on PC2 (BC1) and PC3 (BDIR); BC2 is tied high.
const (
	busMask     = 0x0C
	busInactive = 0x00
	busRead     = 0x01 << 2
	busWrite    = 0x02 << 2
	busAddress  = 0x03 << 2
)

// Data lines: D0-D1 on PC0-PC1, D2-D7 on PD2-PD7.
const (
	dataMaskC = 0x03
	dataMaskD = 0xFC
)

// StartChipClock outputs 2 MHz on OC2A (PB3): toggle on compare match, CTC,
// no prescaling, OCR2A=3.
func StartChipClock() {
	avr.DDRB.SetBits(1 << 3)
	avr.TCCR2A.Set(avr.TCCR2A_COM2A0 | avr.TCCR2A_WGM21)
	avr.TCCR2B.Set(avr.TCCR2B_CS20)
	avr.OCR2A.Set(3)
}

// ConfigureBus makes BC1 and BDIR outputs and parks the bus.
func ConfigureBus() {
	avr.DDRC.SetBits(busMask)
	setBus(busInactive)
}

// WriteRegister latches addr and writes value.
func WriteRegister(addr, value byte) {
	latchAddress(addr)
	putData(value)
	setBus(busWrite)
	busDelay() // 300ns < tDW < 10us
	setBus(busInactive)
	busDelay() // tDH
}

// ReadRegister latches addr and reads the register back.
func ReadRegister(addr byte) byte {
	latchAddress(addr)
	avr.DDRC.ClearBits(dataMaskC)
	avr.DDRD.ClearBits(dataMaskD)
	setBus(busRead)
	busDelay() // tDA = 400ns
	v := avr.PIND.Get()&dataMaskD | avr.PINC.Get()&dataMaskC
	setBus(busInactive)
	busDelay() // tTS
	return v
}

func latchAddress(addr byte) {
	putData(addr)
	setBus(busAddress)
	busDelay() // tAS = 300ns
	setBus(busInactive)
	busDelay() // tAH
}

func putData(v byte) {
	avr.DDRC.SetBits(dataMaskC)
	avr.DDRD.SetBits(dataMaskD)
	avr.PORTC.Set(avr.PORTC.Get()&^dataMaskC | v&dataMaskC)
	avr.PORTD.Set(avr.PORTD.Get()&^dataMaskD | v&dataMaskD)
}

func setBus(mode uint8) {
	avr.PORTC.Set(avr.PORTC.Get()&^busMask | mode)
}

// busDelay waits about a microsecond at 16 MHz.
func busDelay() {
	for i := 0; i < 4; i++ {
		avr.Asm("nop")
		avr.Asm("nop")
	}
}
