package transport

import (
	"log"
	"sync/atomic"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// PlayState is the command stream decoding state.
type PlayState uint8

const (
	PlayTsHi PlayState = iota
	PlayTsLo
	PlayWait
	PlayAddr
	PlayVal
	PlayErr
)

func (s PlayState) String() string {
	switch s {
	case PlayTsHi:
		return "TS_HI"
	case PlayTsLo:
		return "TS_LO"
	case PlayWait:
		return "WAIT"
	case PlayAddr:
		return "ADDR"
	case PlayVal:
		return "VAL"
	case PlayErr:
		return "ERR"
	}
	return "UNKNOWN"
}

// Player decodes frames out of the ring buffer and issues each frame's
// register writes once the timer reaches its timestamp. It is the only
// reader of the buffer and never waits: a step that lacks data or is early
// leaves the state unchanged.
type Player struct {
	buf    *RingBuffer
	bus    ChipBus
	timer  CompareTimer
	meter  LevelMeter
	logger *log.Logger

	state  PlayState
	target uint16
	addr   byte

	frames  atomic.Uint32
	writes  atomic.Uint32
	corrupt atomic.Uint32
}

func NewPlayer(buf *RingBuffer, bus ChipBus, timer CompareTimer, meter LevelMeter) *Player {
	return &Player{
		buf:   buf,
		bus:   bus,
		timer: timer,
		meter: meter,
	}
}

func (p *Player) State() PlayState { return p.state }

// Poll runs as many transitions as the buffered data and the timer allow
// and returns how many were taken.
func (p *Player) Poll() int {
	n := 0
	for p.step() {
		n++
	}
	return n
}

// step takes at most one transition and reports whether it did.
func (p *Player) step() bool {
	if p.state == PlayWait {
		if !p.timer.Matched() {
			return false
		}
		p.state = PlayAddr
		return true
	}

	if p.buf.Empty() {
		return false
	}
	b := p.buf.Get()

	switch p.state {
	case PlayTsHi:
		p.target = uint16(b) << 8
		p.state = PlayTsLo

	case PlayTsLo:
		p.target |= uint16(b)
		p.timer.Schedule(p.target)
		p.state = PlayWait

	case PlayAddr:
		switch {
		case b == proto.FrameEnd:
			p.frames.Add(1)
			p.state = PlayTsHi
		case !proto.ValidAddr(b):
			p.corrupt.Add(1)
			if p.logger != nil {
				p.logger.Printf("[Player] invalid address 0x%02X, skipping frame\r\n", b)
			}
			p.state = PlayErr
		default:
			p.addr = b
			p.state = PlayVal
		}

	case PlayVal:
		p.bus.Send(p.addr, b)
		p.writes.Add(1)
		if ch, ok := proto.LevelChannel(p.addr); ok {
			p.meter.SetLevel(ch, proto.MeterLevel(b))
		}
		p.state = PlayAddr

	case PlayErr:
		if b == proto.FrameEnd {
			p.state = PlayTsHi
		}
	}
	return true
}
