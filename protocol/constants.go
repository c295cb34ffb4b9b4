package protocol

// Wire & command stream constants (platform independent). All higher layers should depend on this file.
const (
	// Command stream layout:
	//   TS_HI (1) | TS_LO (1) | { Addr (1) | Value (1) }* | FrameEnd (1)
	// The timestamp is the value loaded into the timer compare register, high byte first.
	TimestampSize = 2
	WriteSize     = 2

	// FrameEnd terminates a frame when it appears in an address slot.
	FrameEnd = 0xFF

	// Addresses with any of these bits set are not chip registers.
	InvalidAddrMask = 0xF0

	// Chunk status bytes sent by the device after a size request
	StatusAccepted     = 0x00
	StatusRejected     = 0xFF
	StatusFramingError = 0xFE
	StatusOverrun      = 0xFD
	StatusParityError  = 0xFC

	// Buffer sizing
	DefaultBufferSize = 1024
	MaxBufferSize     = 1 << 16 // cursor and credit must fit the 16-bit wire width

	// Serial link (8-N-1)
	DefaultBaudRate = 1000000

	// Timer1 runs from the 16 MHz clock divided by 8
	TimerClock = 2000000

	// YM2149 register map
	RegisterCount = 16
	RegToneA      = 0x00
	RegNoise      = 0x06
	RegMixer      = 0x07
	RegLevelA     = 0x08
	RegLevelB     = 0x09
	RegLevelC     = 0x0A
	RegEnvShape   = 0x0D
	RegPortA      = 0x0E
	RegPortB      = 0x0F

	// Mixer value with all tone and noise outputs disabled (ports as inputs)
	MixerSilent = 0x3F

	// Clock fed to the YM2149 (Atari ST rate)
	ChipClock = 2000000
)
