package transport

import (
	"testing"

	"github.com/valyala/fastrand"

	proto "github.com/ystepanoff/ymstream/protocol"
)

func newTestPlayer(size int) (*Player, *RingBuffer, *MockDriver) {
	driver := NewMockDriver()
	buf := NewRingBuffer(size)
	return NewPlayer(buf, driver, driver, driver), buf, driver
}

func feed(buf *RingBuffer, data ...byte) {
	for _, b := range data {
		buf.Put(b)
	}
}

func TestPlayer_FrameWaitsForTimestamp(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	feed(buf, 0x9C, 0x40, 0x01, 0x11, 0x02, 0x22, proto.FrameEnd)

	p.Poll()
	if p.State() != PlayWait {
		t.Fatalf("State() = %v, want %v", p.State(), PlayWait)
	}
	if driver.compare != 0x9C40 || driver.scheduled != 1 {
		t.Errorf("compare = %#04x after %d schedules, want 0x9C40 after 1", driver.compare, driver.scheduled)
	}
	if w := driver.GetWrites(); len(w) != 0 {
		t.Fatalf("writes before compare match: %v", w)
	}

	// Still early: nothing moves.
	if n := p.Poll(); n != 0 {
		t.Errorf("Poll() = %d steps before match, want 0", n)
	}

	driver.Fire()
	p.Poll()

	want := []proto.RegWrite{{Addr: 0x01, Value: 0x11}, {Addr: 0x02, Value: 0x22}}
	if got := driver.GetWrites(); !equalWrites(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if p.State() != PlayTsHi {
		t.Errorf("State() = %v, want %v", p.State(), PlayTsHi)
	}
	if !buf.Empty() {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
	if p.frames.Load() != 1 || p.writes.Load() != 2 {
		t.Errorf("frames/writes = %d/%d, want 1/2", p.frames.Load(), p.writes.Load())
	}
}

func TestPlayer_FallsThroughWhenDue(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	driver.SetAutoFire(true)
	feed(buf, 0x00, 0x10, 0x03, 0x33, 0x04, 0x44, proto.FrameEnd)

	// TS_HI, TS_LO, WAIT, ADDR, VAL, ADDR, VAL, ADDR(end)
	if n := p.Poll(); n != 8 {
		t.Errorf("Poll() = %d steps, want 8", n)
	}
	if p.State() != PlayTsHi {
		t.Errorf("State() = %v, want %v", p.State(), PlayTsHi)
	}
	if got := len(driver.GetWrites()); got != 2 {
		t.Errorf("%d writes, want 2", got)
	}
}

func TestPlayer_StallsOnMissingData(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	driver.SetAutoFire(true)

	steps := []struct {
		in   []byte
		want PlayState
	}{
		{nil, PlayTsHi},
		{[]byte{0x12}, PlayTsLo},
		{[]byte{0x34}, PlayAddr},
		{[]byte{0x05}, PlayVal},
		{[]byte{0x55}, PlayAddr},
		{[]byte{proto.FrameEnd}, PlayTsHi},
	}
	for i, s := range steps {
		feed(buf, s.in...)
		p.Poll()
		if p.State() != s.want {
			t.Fatalf("step %d: State() = %v, want %v", i, p.State(), s.want)
		}
	}
	want := []proto.RegWrite{{Addr: 0x05, Value: 0x55}}
	if got := driver.GetWrites(); !equalWrites(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestPlayer_SkipsCorruptFrame(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	driver.SetAutoFire(true)

	feed(buf,
		0x00, 0x10, 0x20, 0x33, 0x05, 0x44, proto.FrameEnd, // bad address first
		0x00, 0x20, 0x06, 0x66, proto.FrameEnd,
	)

	p.Poll()

	want := []proto.RegWrite{{Addr: 0x06, Value: 0x66}}
	if got := driver.GetWrites(); !equalWrites(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if driver.compare != 0x0020 {
		t.Errorf("compare = %#04x, want 0x0020", driver.compare)
	}
	if p.corrupt.Load() != 1 || p.frames.Load() != 1 {
		t.Errorf("corrupt/frames = %d/%d, want 1/1", p.corrupt.Load(), p.frames.Load())
	}
	if p.State() != PlayTsHi {
		t.Errorf("State() = %v, want %v", p.State(), PlayTsHi)
	}
}

func TestPlayer_ErrorSkipAcrossPolls(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	driver.SetAutoFire(true)

	feed(buf, 0x00, 0x01, 0x80, 0x01, 0x02)
	p.Poll()
	if p.State() != PlayErr {
		t.Fatalf("State() = %v, want %v", p.State(), PlayErr)
	}
	if !buf.Empty() {
		t.Fatalf("Len() = %d, want bytes discarded", buf.Len())
	}

	feed(buf, 0x03, proto.FrameEnd, 0x00, 0x02)
	p.Poll()
	if p.State() != PlayWait && p.State() != PlayAddr {
		t.Fatalf("State() = %v, want next frame under way", p.State())
	}
	if driver.compare != 0x0002 {
		t.Errorf("compare = %#04x, want 0x0002", driver.compare)
	}
	if w := driver.GetWrites(); len(w) != 0 {
		t.Errorf("writes from corrupt frame: %v", w)
	}
}

func TestPlayer_LevelMeter(t *testing.T) {
	p, buf, driver := newTestPlayer(64)
	driver.SetAutoFire(true)

	feed(buf, 0x00, 0x00,
		proto.RegLevelA, 0x0C,
		proto.RegLevelB, 0x1F, // envelope bit ignored
		proto.RegLevelC, 0x00,
		proto.RegMixer, 0x38,
		proto.FrameEnd,
	)
	p.Poll()

	want := [3]uint8{proto.SoundLevel[12], proto.SoundLevel[15], proto.SoundLevel[0]}
	if driver.levels != want {
		t.Errorf("levels = %v, want %v", driver.levels, want)
	}
}

// Random valid frames pushed in random-sized pieces come out as the same writes.
func TestPlayer_RandomStream(t *testing.T) {
	p, buf, driver := newTestPlayer(256)
	driver.SetAutoFire(true)

	var stream []byte
	var want []proto.RegWrite
	for i := 0; i < 200; i++ {
		f := &proto.Frame{Timestamp: uint16(fastrand.Uint32())}
		writes := fastrand.Uint32n(proto.RegisterCount)
		for j := uint32(0); j < writes; j++ {
			f.Writes = append(f.Writes, proto.RegWrite{
				Addr:  byte(fastrand.Uint32n(proto.RegisterCount)),
				Value: byte(fastrand.Uint32()),
			})
		}
		var err error
		if stream, err = proto.AppendFrame(stream, f); err != nil {
			t.Fatalf("AppendFrame() error = %v", err)
		}
		want = append(want, f.Writes...)
	}

	for len(stream) > 0 {
		n := int(fastrand.Uint32n(uint32(buf.Free()))) + 1
		n = min(n, len(stream), buf.Free())
		feed(buf, stream[:n]...)
		stream = stream[n:]
		p.Poll()
	}
	p.Poll()

	if got := driver.GetWrites(); !equalWrites(got, want) {
		t.Fatalf("got %d writes, want %d (first mismatch hidden)", len(got), len(want))
	}
	if p.frames.Load() != 200 {
		t.Errorf("frames = %d, want 200", p.frames.Load())
	}
}
