package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// FrameSource yields frames in playback order and io.EOF after the last one.
type FrameSource interface {
	Next() (*proto.Frame, error)
}

// Config holds the host side settings of a stream.
type Config struct {
	CreditWidth proto.CreditWidth // must match the firmware build
	Queue       int               // encoded frames buffered ahead of the link
	Silence     bool              // append a frame muting all channels
	MaxRetries  int               // consecutive rejected or faulted chunks tolerated
	Logger      *log.Logger
	Progress    *Progress
}

func DefaultConfig() Config {
	return Config{
		CreditWidth: proto.CreditWide,
		Queue:       256,
		Silence:     true,
		MaxRetries:  8,
	}
}

// StreamStats counts what the host saw on the link.
type StreamStats struct {
	Credits  int
	Chunks   int
	Bytes    int
	Frames   int
	Rejected int
	Faults   int
}

// Streamer feeds a command stream to the device, one chunk per credit.
type Streamer struct {
	cfg    Config
	conn   io.ReadWriter
	r      *bufio.Reader
	logger *log.Logger
	stats  StreamStats
}

func NewStreamer(conn io.ReadWriter, cfg Config) (*Streamer, error) {
	if !cfg.CreditWidth.Valid() {
		return nil, fmt.Errorf("credit width %d: %w", cfg.CreditWidth, proto.ErrInvalidWidth)
	}
	if cfg.Queue < 1 {
		cfg.Queue = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Streamer{
		cfg:    cfg,
		conn:   conn,
		r:      bufio.NewReader(conn),
		logger: logger,
	}, nil
}

// Stats is valid once Stream has returned.
func (s *Streamer) Stats() StreamStats { return s.stats }

// Stream encodes frames from src on one goroutine and sends them on another.
// It returns after the last chunk has been written; the device may still be
// playing. A blocked read is only released by closing the connection.
func (s *Streamer) Stream(ctx context.Context, src FrameSource) error {
	g, ctx := errgroup.WithContext(ctx)
	frames := make(chan []byte, s.cfg.Queue)

	g.Go(func() error { return s.produce(ctx, src, frames) })
	g.Go(func() error { return s.send(ctx, frames) })

	err := g.Wait()
	s.cfg.Progress.Finish()
	return err
}

func (s *Streamer) produce(ctx context.Context, src FrameSource, out chan<- []byte) error {
	defer close(out)

	emit := func(f *proto.Frame) error {
		b, err := proto.EncodeFrame(f)
		if err != nil {
			return fmt.Errorf("frame at %#04x: %w", f.Timestamp, err)
		}
		select {
		case out <- b:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	if s.cfg.Silence {
		return emit(proto.SilenceFrame(0))
	}
	return nil
}

func (s *Streamer) send(ctx context.Context, frames <-chan []byte) error {
	var pending []byte
	open := true
	failures := 0

	recv := func(b []byte, ok bool) {
		if !ok {
			open = false
			return
		}
		pending = append(pending, b...)
		s.stats.Frames++
	}

	for {
		if len(pending) == 0 {
			if !open {
				return nil
			}
			select {
			case b, ok := <-frames:
				recv(b, ok)
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		credit, err := s.readCount()
		if err != nil {
			return fmt.Errorf("read credit: %w", err)
		}
		s.stats.Credits++
	fill:
		for open && len(pending) < credit {
			select {
			case b, ok := <-frames:
				recv(b, ok)
			default:
				break fill
			}
		}

		n := min(credit, len(pending))
		s.cfg.Progress.Update(credit, len(pending))
		if _, err := s.conn.Write(proto.AppendCount(nil, s.cfg.CreditWidth, n)); err != nil {
			return fmt.Errorf("write size: %w", err)
		}

		status, err := s.r.ReadByte()
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		switch status {
		case proto.StatusAccepted:
			if _, err := s.conn.Write(pending[:n]); err != nil {
				return fmt.Errorf("write chunk: %w", err)
			}
			pending = pending[n:]
			s.stats.Chunks++
			s.stats.Bytes += n
			failures = 0
			continue
		case proto.StatusRejected:
			s.stats.Rejected++
			s.logger.Printf("[Streamer] chunk of %d rejected (credit %d)\r\n", n, credit)
			err = proto.ErrRejected
		default:
			fault, ok := proto.FaultFromStatus(status)
			if !ok {
				return fmt.Errorf("status %#02x: %w", status, proto.ErrUnknownStatus)
			}
			b, rerr := s.r.ReadByte()
			if rerr != nil {
				return fmt.Errorf("read fault byte: %w", rerr)
			}
			s.stats.Faults++
			s.logger.Printf("[Streamer] %s on byte %#02x\r\n", fault, b)
			err = proto.ErrLinkFault
		}

		// The device re-arms with a fresh credit; the chunk is retried against it.
		failures++
		if failures > s.cfg.MaxRetries {
			return fmt.Errorf("%d consecutive failed chunks: %w", failures, err)
		}
	}
}

func (s *Streamer) readCount() (int, error) {
	var buf [2]byte
	w := int(s.cfg.CreditWidth)
	if _, err := io.ReadFull(s.r, buf[:w]); err != nil {
		return 0, err
	}
	return proto.ParseCount(buf[:w], s.cfg.CreditWidth)
}

// SliceSource plays a fixed list of frames.
type SliceSource struct {
	frames []*proto.Frame
	pos    int
}

func NewSliceSource(frames []*proto.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next() (*proto.Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}
