package host

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// ParseDumpLine parses one register dump line:
//
//	<label> <timestamp> <r0>-<r1>-...-<rN>
//
// The timestamp is hexadecimal and only its low 16 bits are kept. A register
// field of ".." leaves that register unchanged.
func ParseDumpLine(line string) (*proto.Frame, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, fmt.Errorf("want 3 fields, got %d", len(fields))
	}

	ts := fields[1]
	if len(ts) > 4 {
		ts = ts[len(ts)-4:]
	}
	v, err := strconv.ParseUint(ts, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("timestamp %q: %w", fields[1], err)
	}

	f := &proto.Frame{Timestamp: uint16(v)}
	for i, reg := range strings.Split(fields[2], "-") {
		if reg == ".." {
			continue
		}
		if i >= proto.RegisterCount {
			return nil, fmt.Errorf("register %d: %w", i, proto.ErrInvalidRegister)
		}
		val, err := strconv.ParseUint(reg, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("register %d value %q: %w", i, reg, err)
		}
		f.Writes = append(f.Writes, proto.RegWrite{Addr: byte(i), Value: byte(val)})
	}
	return f, nil
}

// DumpReader reads frames from a register dump, one per line. Blank lines
// are skipped.
type DumpReader struct {
	sc   *bufio.Scanner
	line int
}

func NewDumpReader(r io.Reader) *DumpReader {
	return &DumpReader{sc: bufio.NewScanner(r)}
}

func (d *DumpReader) Next() (*proto.Frame, error) {
	for d.sc.Scan() {
		d.line++
		text := strings.TrimSpace(d.sc.Text())
		if text == "" {
			continue
		}
		f, err := ParseDumpLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return f, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
