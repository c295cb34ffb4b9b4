// Command ymstream plays a YM file or a register dump on the sequencer
// attached to a serial port.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ystepanoff/ymstream/host"
	proto "github.com/ystepanoff/ymstream/protocol"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial device")
	baud := flag.Int("baud", proto.DefaultBaudRate, "serial speed")
	width := flag.Int("width", int(proto.CreditWide), "credit width in bytes (1 or 2), as built into the firmware")
	format := flag.String("format", "", "input format: ym or dump (default from the file extension)")
	queue := flag.Int("queue", host.DefaultConfig().Queue, "frames encoded ahead of the link")
	quiet := flag.Bool("q", false, "no progress line")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file.ym | dump.txt | ->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	log.SetFlags(0)
	if err := run(*port, *baud, proto.CreditWidth(*width), *format, *queue, *quiet, flag.Arg(0)); err != nil {
		log.Fatalf("ymstream: %v", err)
	}
}

func run(port string, baud int, width proto.CreditWidth, format string, queue int, quiet bool, path string) error {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	src, err := newSource(in, path, format)
	if err != nil {
		return err
	}

	cfg := host.DefaultConfig()
	cfg.CreditWidth = width
	cfg.Queue = queue
	if !quiet {
		cfg.Progress = host.NewProgress(os.Stderr)
	}

	conn, err := host.OpenSerial(port, baud)
	if err != nil {
		return err
	}
	defer conn.Close()

	streamer, err := host.NewStreamer(conn, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	streamDone := make(chan struct{})
	g.Go(func() error {
		defer close(streamDone)
		return streamer.Stream(ctx, src)
	})
	// A read blocked on the port only returns once the port is closed.
	g.Go(func() error {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-streamDone:
		}
		return nil
	})
	err = g.Wait()

	st := streamer.Stats()
	log.Printf("[Streamer] %d frames in %d chunks (%d bytes), %d rejected, %d link faults\r\n",
		st.Frames, st.Chunks, st.Bytes, st.Rejected, st.Faults)
	return err
}

func newSource(r io.Reader, path, format string) (host.FrameSource, error) {
	if format == "" {
		format = "dump"
		if strings.EqualFold(filepath.Ext(path), ".ym") {
			format = "ym"
		}
	}

	switch format {
	case "ym":
		y, err := host.ReadYM(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if !y.HasEnd {
			log.Printf("[YM] %s: End! marker not found after frames\r\n", path)
		}
		log.Printf("[YM] %q by %q, %d frames at %d Hz\r\n", y.Title, y.Author, len(y.Frames), y.FrameRate)
		return y.Source(), nil
	case "dump":
		return host.NewDumpReader(bufio.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
