//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing).
package ymstream

import (
	"github.com/ystepanoff/ymstream/driver/stub"
	"github.com/ystepanoff/ymstream/transport"
)

func NewDevice(cfg Config) (*Device, error) {
	return transport.NewDeviceWithDriver(cfg, stub.New())
}

// NewSimulator returns a device on a simulated board together with the
// board, whose Host end speaks the wire protocol.
func NewSimulator(cfg Config) (*Device, *stub.Driver, error) {
	d := stub.New()
	dev, err := transport.NewDeviceWithDriver(cfg, d)
	if err != nil {
		return nil, nil, err
	}
	return dev, d, nil
}
