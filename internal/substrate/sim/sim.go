// Package sim is an in-memory substrate.Controller/substrate.Device pair
// used by this module's test suite in place of a real kernel-bypass NIC
// binding. It lets workers, the ARP responder, and the IPv4 pipeline be
// exercised end to end without any hardware.
package sim

import (
	"sync"

	"github.com/packetwire/dprouter/internal/substrate"
)

// Controller is a substrate.Controller backed by in-memory Devices.
type Controller struct {
	mu      sync.Mutex
	devices map[uint8]*Device
}

// New returns a ready-to-use Controller.
func New() *Controller {
	return &Controller{devices: make(map[uint8]*Device)}
}

// Init is a no-op for the simulated substrate.
func (c *Controller) Init() error { return nil }

// ConfigureDevice creates (or returns the existing) Device for ifaceID,
// sized for numTxQueues TX queues and a single RX queue, mirroring the
// source's configure_device.
func (c *Controller) ConfigureDevice(ifaceID uint8, numTxQueues uint16) (substrate.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.devices[ifaceID]; ok {
		d.mu.Lock()
		for len(d.tx) < int(numTxQueues) {
			d.tx = append(d.tx, nil)
		}
		d.mu.Unlock()
		return d, nil
	}
	d := newDevice(numTxQueues)
	c.devices[ifaceID] = d
	return d, nil
}

// Device returns the Device already configured for ifaceID, for tests
// that need to push frames into its RX queue or inspect what it sent.
func (c *Controller) Device(ifaceID uint8) (*Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.devices[ifaceID]
	return d, ok
}

// SetMAC sets the Ethernet address reported by OwnedMAC for ifaceID,
// registering the device first if needed.
func (c *Controller) SetMAC(ifaceID uint8, mac [6]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.devices[ifaceID]
	if !ok {
		d = newDevice(1)
		c.devices[ifaceID] = d
	}
	d.mu.Lock()
	d.mac = mac
	d.mu.Unlock()
}

// Device is an in-memory substrate.Device: each RX/TX queue is backed by
// a plain slice rather than a hardware descriptor ring.
type Device struct {
	mu  sync.Mutex
	mac [6]byte
	rx  []substrate.Frame // single RX queue, as in the real substrate
	tx  [][]substrate.Frame

	// txFullQueues marks queues that must reject every TxBurst attempt,
	// letting tests exercise the bounded-retry drop path.
	txFullQueues map[uint16]bool
}

func newDevice(numTxQueues uint16) *Device {
	return &Device{
		tx:           make([][]substrate.Frame, numTxQueues),
		txFullQueues: make(map[uint16]bool),
	}
}

// OwnedMAC implements substrate.Device.
func (d *Device) OwnedMAC() [6]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mac
}

// RxBurst implements substrate.Device. Only queue 0 is populated by
// Enqueue; other queue indices always return empty.
func (d *Device) RxBurst(queue uint16, burst int) []substrate.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if queue != 0 || len(d.rx) == 0 {
		return nil
	}
	n := burst
	if n > len(d.rx) {
		n = len(d.rx)
	}
	out := d.rx[:n]
	d.rx = d.rx[n:]
	return out
}

// TxBurst implements substrate.Device.
func (d *Device) TxBurst(queue uint16, frames []substrate.Frame) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.txFullQueues[queue] {
		return 0
	}
	if int(queue) >= len(d.tx) {
		return 0
	}
	d.tx[queue] = append(d.tx[queue], frames...)
	return len(frames)
}

// Enqueue pushes a frame onto the device's RX queue 0, for tests that
// simulate an arriving burst.
func (d *Device) Enqueue(f substrate.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx = append(d.rx, f)
}

// Sent returns every frame accepted on queue so far, for test assertions.
func (d *Device) Sent(queue uint16) []substrate.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(queue) >= len(d.tx) {
		return nil
	}
	return d.tx[queue]
}

// SetTXFull forces every subsequent TxBurst on queue to reject all
// frames, for exercising the bounded-retry drop path.
func (d *Device) SetTXFull(queue uint16, full bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txFullQueues[queue] = full
}
