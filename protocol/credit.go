package protocol

import "io"

// CreditWidth is the number of bytes used on the wire for a credit announcement
// and for the chunk size that answers it.
type CreditWidth uint8

const (
	CreditNarrow CreditWidth = 1 // one byte, chunks capped at 255
	CreditWide   CreditWidth = 2 // two bytes, high byte first
)

func (w CreditWidth) Valid() bool { return w == CreditNarrow || w == CreditWide }

// Max returns the largest count representable in w bytes.
func (w CreditWidth) Max() int {
	if w == CreditNarrow {
		return 0xFF
	}
	return 0xFFFF
}

// Clamp bounds n to [0, w.Max()].
func (w CreditWidth) Clamp(n int) int {
	if n < 0 {
		return 0
	}
	return min(n, w.Max())
}

// AppendCount appends n (clamped) to dst as a big-endian w-byte count.
func AppendCount(dst []byte, w CreditWidth, n int) []byte {
	n = w.Clamp(n)
	if w == CreditWide {
		dst = append(dst, byte(n>>8))
	}
	return append(dst, byte(n))
}

// ParseCount decodes a big-endian w-byte count from the start of b.
func ParseCount(b []byte, w CreditWidth) (int, error) {
	if !w.Valid() {
		return 0, ErrInvalidWidth
	}
	if len(b) < int(w) {
		return 0, io.ErrUnexpectedEOF
	}
	if w == CreditNarrow {
		return int(b[0]), nil
	}
	return int(b[0])<<8 | int(b[1]), nil
}
