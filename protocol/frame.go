package protocol

import "encoding/binary"

// RegWrite is a single chip register write.
type RegWrite struct {
	Addr  byte
	Value byte
}

// Frame is one timestamp plus the register writes due at that time.
// Layout: TS_HI(1) | TS_LO(1) | {Addr(1) | Value(1)}* | FrameEnd(1)
// Timestamp is the absolute value the device loads into its compare register,
// so consecutive frames advance it modulo 2^16.
type Frame struct {
	Timestamp uint16
	Writes    []RegWrite
}

// Size returns the encoded length of f in bytes.
func (f *Frame) Size() int { return TimestampSize + len(f.Writes)*WriteSize + 1 }

// ValidAddr reports whether addr names a chip register.
func ValidAddr(addr byte) bool { return addr&InvalidAddrMask == 0 }

// AppendFrame appends the wire encoding of f to dst.
func AppendFrame(dst []byte, f *Frame) ([]byte, error) {
	if f == nil {
		return dst, nil
	}
	for _, w := range f.Writes {
		if !ValidAddr(w.Addr) {
			return dst, ErrInvalidRegister
		}
	}
	dst = binary.BigEndian.AppendUint16(dst, f.Timestamp)
	for _, w := range f.Writes {
		dst = append(dst, w.Addr, w.Value)
	}
	return append(dst, FrameEnd), nil
}

// EncodeFrame returns the wire encoding of f.
func EncodeFrame(f *Frame) ([]byte, error) {
	if f == nil {
		return make([]byte, 0), nil
	}
	return AppendFrame(make([]byte, 0, f.Size()), f)
}

// DecodeFrame decodes the frame at the start of data and returns it together
// with the number of bytes consumed.
//
// A frame holding an invalid address yields ErrCorruptFrame and the count of
// bytes up to and including the next FrameEnd, which is where the device
// resumes after the same corruption. ErrShortFrame means more data is needed.
func DecodeFrame(data []byte) (*Frame, int, error) {
	if len(data) < TimestampSize {
		return nil, 0, ErrShortFrame
	}

	f := &Frame{Timestamp: binary.BigEndian.Uint16(data)}
	off := TimestampSize
	for off < len(data) {
		addr := data[off]
		if addr == FrameEnd {
			return f, off + 1, nil
		}
		if !ValidAddr(addr) {
			for i := off + 1; i < len(data); i++ {
				if data[i] == FrameEnd {
					return nil, i + 1, ErrCorruptFrame
				}
			}
			return nil, 0, ErrShortFrame
		}
		if off+1 >= len(data) {
			break
		}
		f.Writes = append(f.Writes, RegWrite{Addr: addr, Value: data[off+1]})
		off += WriteSize
	}
	return nil, 0, ErrShortFrame
}

// SilenceFrame returns a frame due at ts that mutes the three tone channels.
func SilenceFrame(ts uint16) *Frame {
	return &Frame{
		Timestamp: ts,
		Writes: []RegWrite{
			{Addr: RegLevelA, Value: 0},
			{Addr: RegLevelB, Value: 0},
			{Addr: RegLevelC, Value: 0},
		},
	}
}
