//go:build !linux

package host

import (
	"errors"
	"os"
)

var errNoSerial = errors.New("serial: raw tty setup is only implemented on linux")

func OpenSerial(path string, baud int) (*os.File, error) {
	return nil, errNoSerial
}
