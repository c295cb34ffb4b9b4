package protocol

import "errors"

var (
	ErrShortFrame        = errors.New("command stream frame truncated")
	ErrCorruptFrame      = errors.New("invalid register address in frame")
	ErrInvalidRegister   = errors.New("invalid register (valid range: 0x00-0x0F)")
	ErrInvalidWidth      = errors.New("invalid credit width (valid: 1 or 2 bytes)")
	ErrInvalidBufferSize = errors.New("invalid buffer size (valid range: 2-65536)")
	ErrRejected          = errors.New("chunk rejected by device")
	ErrLinkFault         = errors.New("serial link fault reported by device")
	ErrUnknownStatus     = errors.New("unknown chunk status")
	ErrChipNotResponding = errors.New("sound chip not responding")
	ErrUnsupportedYM     = errors.New("unsupported ym file")
)
