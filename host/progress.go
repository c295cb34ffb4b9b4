package host

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Progress keeps a single status line with the device's free space and the
// bytes waiting on the host. It stays silent when not writing to a terminal.
type Progress struct {
	w       io.Writer
	enabled bool
	drawn   bool
}

func NewProgress(f *os.File) *Progress {
	return &Progress{w: f, enabled: term.IsTerminal(int(f.Fd()))}
}

func (p *Progress) Update(credit, pending int) {
	if p == nil || !p.enabled {
		return
	}
	fmt.Fprintf(p.w, "\x1b[2K\rYM_empty: %d\tPC_buffer: %d", credit, pending)
	p.drawn = true
}

// Finish moves past the status line.
func (p *Progress) Finish() {
	if p == nil || !p.drawn {
		return
	}
	fmt.Fprintln(p.w)
	p.drawn = false
}
