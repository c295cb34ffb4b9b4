//go:build tinygo || baremetal

// This file is built only for embedded targets (ATmega328P with a YM2149).
package ymstream

import (
	"github.com/ystepanoff/ymstream/driver/atmega"
	"github.com/ystepanoff/ymstream/transport"
)

func NewDevice(cfg Config) (*Device, error) {
	return transport.NewDeviceWithDriver(cfg, atmega.New())
}
