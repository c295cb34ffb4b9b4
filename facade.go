// Package ymstream provides a façade to access the streaming sequencer.
package ymstream

import (
	"github.com/ystepanoff/ymstream/protocol"
	"github.com/ystepanoff/ymstream/transport"
)

// The actual implementation is split into build-tag specific files:
// - constructors_avr.go - for embedded platforms (//go:build tinygo || baremetal)
// - constructors_host.go - for development/testing (//go:build !tinygo && !baremetal)

type (
	Config      = transport.Config
	Device      = transport.Device
	Stats       = transport.Stats
	Frame       = protocol.Frame
	RegWrite    = protocol.RegWrite
	CreditWidth = protocol.CreditWidth
)

// Error constants exposed in the public API
var (
	ErrCorruptFrame      = protocol.ErrCorruptFrame
	ErrInvalidRegister   = protocol.ErrInvalidRegister
	ErrInvalidBufferSize = protocol.ErrInvalidBufferSize
	ErrInvalidWidth      = protocol.ErrInvalidWidth
	ErrChipNotResponding = protocol.ErrChipNotResponding
	ErrRejected          = protocol.ErrRejected
	ErrLinkFault         = protocol.ErrLinkFault
)

// Constants exposed in the public API
const (
	CreditNarrow = protocol.CreditNarrow
	CreditWide   = protocol.CreditWide

	StatusAccepted = protocol.StatusAccepted
	StatusRejected = protocol.StatusRejected
)

func DefaultConfig() Config { return transport.DefaultConfig() }
