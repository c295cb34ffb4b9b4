package host

import (
	"encoding/binary"
	"fmt"
	"io"

	proto "github.com/ystepanoff/ymstream/protocol"
)

const (
	ymSignature       = "LeOnArD!"
	ymEndMarker       = "End!"
	ymLegacyRegs      = 14
	ymDefaultRate     = 50
	ymAttrInterleaved = 0x01
)

// YMFile is a decoded YM5!/YM6! register dump.
type YMFile struct {
	ID          string
	Frames      [][proto.RegisterCount]byte
	FrameRate   uint16
	ClockHz     uint32
	LoopFrame   uint32
	Title       string
	Author      string
	Comment     string
	Interleaved bool
	HasEnd      bool // End! marker found after the frames
}

func ReadYM(r io.Reader) (*YMFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseYM(data)
}

// ParseYM decodes an uncompressed YM5! or YM6! file. Digidrum samples are
// skipped.
func ParseYM(data []byte) (*YMFile, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("header: %w", io.ErrUnexpectedEOF)
	}
	id := string(data[:4])
	if id != "YM5!" && id != "YM6!" {
		return nil, fmt.Errorf("id %q: %w", id, proto.ErrUnsupportedYM)
	}
	if string(data[4:12]) != ymSignature {
		return nil, fmt.Errorf("signature %q: %w", data[4:12], proto.ErrUnsupportedYM)
	}

	off := 12
	u32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, io.ErrUnexpectedEOF
		}
		v := binary.BigEndian.Uint32(data[off:])
		off += 4
		return v, nil
	}
	u16 := func() (uint16, error) {
		if off+2 > len(data) {
			return 0, io.ErrUnexpectedEOF
		}
		v := binary.BigEndian.Uint16(data[off:])
		off += 2
		return v, nil
	}
	cstr := func() (string, error) {
		start := off
		for off < len(data) && data[off] != 0 {
			off++
		}
		if off == len(data) {
			return "", io.ErrUnexpectedEOF
		}
		s := string(data[start:off])
		off++
		return s, nil
	}

	y := &YMFile{ID: id}
	var (
		nbFrames, attrs, extra uint32
		drums, extra16         uint16
		err                    error
	)
	if nbFrames, err = u32(); err != nil {
		return nil, fmt.Errorf("frame count: %w", err)
	}
	if attrs, err = u32(); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	if drums, err = u16(); err != nil {
		return nil, fmt.Errorf("digidrums: %w", err)
	}
	if y.ClockHz, err = u32(); err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	if y.FrameRate, err = u16(); err != nil {
		return nil, fmt.Errorf("frame rate: %w", err)
	}
	if y.LoopFrame, err = u32(); err != nil {
		return nil, fmt.Errorf("loop frame: %w", err)
	}
	if extra16, err = u16(); err != nil {
		return nil, fmt.Errorf("extra size: %w", err)
	}
	extra = uint32(extra16)
	if uint64(off)+uint64(extra) > uint64(len(data)) {
		return nil, fmt.Errorf("extra data: %w", io.ErrUnexpectedEOF)
	}
	off += int(extra)

	for i := 0; i < int(drums); i++ {
		size, err := u32()
		if err != nil {
			return nil, fmt.Errorf("digidrum %d: %w", i, err)
		}
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return nil, fmt.Errorf("digidrum %d: %w", i, io.ErrUnexpectedEOF)
		}
		off += int(size)
	}

	for _, s := range []*string{&y.Title, &y.Author, &y.Comment} {
		if *s, err = cstr(); err != nil {
			return nil, fmt.Errorf("song info: %w", err)
		}
	}

	y.Interleaved = attrs&ymAttrInterleaved != 0
	if y.FrameRate == 0 {
		y.FrameRate = ymDefaultRate
	}
	// One frame must fit in a wrap of the 16-bit compare timer.
	if proto.TimerClock/uint32(y.FrameRate) > 0xFFFF {
		return nil, fmt.Errorf("frame rate %d: %w", y.FrameRate, proto.ErrUnsupportedYM)
	}

	count := int(nbFrames)
	rest := data[off:]
	regs := proto.RegisterCount
	if uint64(len(rest)) < uint64(nbFrames)*proto.RegisterCount {
		if uint64(len(rest)) < uint64(nbFrames)*ymLegacyRegs {
			return nil, fmt.Errorf("frames: %w", io.ErrUnexpectedEOF)
		}
		regs = ymLegacyRegs
	}

	y.Frames = make([][proto.RegisterCount]byte, count)
	if y.Interleaved {
		for reg := 0; reg < regs; reg++ {
			plane := rest[reg*count : (reg+1)*count]
			for i := range y.Frames {
				y.Frames[i][reg] = plane[i]
			}
		}
	} else {
		for i := range y.Frames {
			copy(y.Frames[i][:regs], rest[i*regs:])
		}
	}

	tail := rest[regs*count:]
	y.HasEnd = len(tail) >= len(ymEndMarker) && string(tail[:len(ymEndMarker)]) == ymEndMarker
	return y, nil
}

// Step is the timer distance between two frames.
func (y *YMFile) Step() uint16 {
	return uint16(proto.TimerClock / uint32(y.FrameRate))
}

// Source returns the frames as a command stream starting at timestamp 0.
func (y *YMFile) Source() FrameSource {
	return &ymSource{file: y, step: y.Step()}
}

type ymSource struct {
	file *YMFile
	step uint16
	pos  int
	ts   uint16
}

// Next writes registers 0-13 of each frame. Register 13 is left out when it
// holds 0xFF so the envelope is not retriggered; the I/O ports never change.
func (s *ymSource) Next() (*proto.Frame, error) {
	if s.pos >= len(s.file.Frames) {
		return nil, io.EOF
	}
	regs := &s.file.Frames[s.pos]
	f := &proto.Frame{Timestamp: s.ts, Writes: make([]proto.RegWrite, 0, proto.RegPortA)}
	for addr := byte(0); addr < proto.RegPortA; addr++ {
		v := regs[addr]
		if addr == proto.RegEnvShape && v == 0xFF {
			continue
		}
		f.Writes = append(f.Writes, proto.RegWrite{Addr: addr, Value: v})
	}
	s.pos++
	s.ts += s.step
	return f, nil
}
