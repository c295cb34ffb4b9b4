package protocol

// Fault is a link-layer error flagged by the serial port alongside a received byte.
type Fault uint8

const (
	FaultNone Fault = iota
	FaultFraming
	FaultOverrun
	FaultParity
)

// Status returns the status byte reported to the host for f.
func (f Fault) Status() byte {
	switch f {
	case FaultFraming:
		return StatusFramingError
	case FaultOverrun:
		return StatusOverrun
	case FaultParity:
		return StatusParityError
	}
	return StatusAccepted
}

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultFraming:
		return "framing error"
	case FaultOverrun:
		return "overrun"
	case FaultParity:
		return "parity error"
	}
	return "unknown fault"
}

// FaultFromStatus maps a status byte back to the fault it reports.
func FaultFromStatus(status byte) (Fault, bool) {
	switch status {
	case StatusFramingError:
		return FaultFraming, true
	case StatusOverrun:
		return FaultOverrun, true
	case StatusParityError:
		return FaultParity, true
	}
	return FaultNone, false
}
