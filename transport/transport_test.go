package transport

import (
	"sync"

	proto "github.com/ystepanoff/ymstream/protocol"
)

// MockDriver implements the Driver interface for testing
type MockDriver struct {
	mutex sync.Mutex

	handler ReceiveHandler
	txLog   []byte
	txBusy  bool

	regs     [proto.RegisterCount]byte
	writes   []proto.RegWrite
	deadChip bool

	compare   uint16
	scheduled int
	matched   bool
	autoFire  bool

	levels [3]uint8
	led    bool
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		txLog:  make([]byte, 0),
		writes: make([]proto.RegWrite, 0),
	}
}

func (d *MockDriver) Initialise() {}

func (d *MockDriver) SetReceiveHandler(h ReceiveHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.handler = h
}

func (d *MockDriver) TxReady() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return !d.txBusy
}

func (d *MockDriver) Transmit(b byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.txLog = append(d.txLog, b)
}

func (d *MockDriver) Send(addr, value byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.regs[addr&0x0F] = value
	d.writes = append(d.writes, proto.RegWrite{Addr: addr, Value: value})
}

func (d *MockDriver) Read(addr byte) byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.deadChip {
		return 0xFF
	}
	return d.regs[addr&0x0F]
}

func (d *MockDriver) Schedule(at uint16) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.compare = at
	d.scheduled++
	d.matched = d.autoFire
}

func (d *MockDriver) Matched() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.matched
}

func (d *MockDriver) SetLevel(channel int, level uint8) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.levels[channel] = level
}

func (d *MockDriver) SetLED(on bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.led = on
}

// Test helper methods
func (d *MockDriver) InjectRx(data ...byte) {
	for _, b := range data {
		d.InjectFault(b, proto.FaultNone)
	}
}

func (d *MockDriver) InjectFault(b byte, fault proto.Fault) {
	d.mutex.Lock()
	h := d.handler
	d.mutex.Unlock()
	if h != nil {
		h(b, fault)
	}
}

func (d *MockDriver) GetTxLog() []byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	result := make([]byte, len(d.txLog))
	copy(result, d.txLog)
	return result
}

func (d *MockDriver) ClearTxLog() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.txLog = d.txLog[:0]
}

func (d *MockDriver) GetWrites() []proto.RegWrite {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	result := make([]proto.RegWrite, len(d.writes))
	copy(result, d.writes)
	return result
}

func (d *MockDriver) ClearWrites() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.writes = d.writes[:0]
}

func (d *MockDriver) Fire() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.matched = true
}

func (d *MockDriver) SetAutoFire(on bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.autoFire = on
}

func (d *MockDriver) SetTxBusy(busy bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.txBusy = busy
}

// newTestDevice returns an initialised device with a clean driver log.
func newTestDevice(size int, width proto.CreditWidth) (*Device, *MockDriver) {
	driver := NewMockDriver()
	cfg := DefaultConfig()
	cfg.BufferSize = size
	cfg.CreditWidth = width
	dev, err := NewDeviceWithDriver(cfg, driver)
	if err != nil {
		panic(err)
	}
	if err := dev.Initialise(); err != nil {
		panic(err)
	}
	driver.ClearWrites()
	return dev, driver
}

func equalWrites(a, b []proto.RegWrite) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
