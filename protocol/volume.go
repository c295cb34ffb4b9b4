package protocol

// SoundLevel maps a 4-bit channel level to an 8-bit meter duty cycle.
// The YM2149 DAC steps by roughly 3 dB, so entries double every two steps.
var SoundLevel = [16]uint8{0, 2, 3, 4, 6, 8, 11, 16, 23, 32, 45, 64, 90, 128, 181, 255}

// LevelChannel reports which tone channel (0-2) a level register drives.
func LevelChannel(addr byte) (int, bool) {
	switch addr {
	case RegLevelA, RegLevelB, RegLevelC:
		return int(addr - RegLevelA), true
	}
	return 0, false
}

// MeterLevel returns the meter duty for a value written to a level register.
// Bit 4 (envelope mode) is ignored.
func MeterLevel(value byte) uint8 { return SoundLevel[value&0x0F] }
