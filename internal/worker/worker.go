// Package worker implements the per-core forwarding loop spec.md §4.5
// describes: poll assigned interfaces for bursts of frames, validate and
// dispatch each one, and back off briefly when nothing arrived.
package worker

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/packetwire/dprouter/internal/arp"
	"github.com/packetwire/dprouter/internal/fib"
	"github.com/packetwire/dprouter/internal/frame"
	"github.com/packetwire/dprouter/internal/iface"
	"github.com/packetwire/dprouter/internal/ipv4"
	"github.com/packetwire/dprouter/internal/substrate"
)

const (
	// BurstSize is the maximum number of frames drained from a single
	// interface in one RxBurst call (spec.md's "Burst" glossary entry).
	BurstSize = 32

	// MaxTXRetry is how many times TxBurst is retried before a frame is
	// dropped (spec.md §4.3/§4.4/§9).
	MaxTXRetry = 10

	// IdleBackoff is how long a worker sleeps when no assigned interface
	// produced any frames in an iteration.
	IdleBackoff = 100 * time.Microsecond
)

// Config bundles everything a single worker needs. Assigned holds the
// interfaces this worker polls; AllInterfaces holds every registered
// interface (the ARP responder must check address ownership against all
// of them, not just the ones this worker owns — spec.md §4.4).
// Devices is shared read-only across every worker: it maps an interface
// id to the substrate.Device partitioned queues grant this worker access
// to via its own TXQueue id.
type Config struct {
	ID            int
	TXQueue       uint16
	Assigned      []iface.Config
	AllInterfaces []iface.Config
	Devices       map[uint8]substrate.Device
	FIB           *fib.Table
	Quit          *atomic.Bool
	Log           *zap.SugaredLogger
}

// Run executes the worker loop until cfg.Quit is set. It is meant to be
// called on a single pinned goroutine/core for the lifetime of the
// process; the actual thread/core binding is outside this package's
// scope (spec.md §1).
func Run(cfg Config) {
	for !cfg.Quit.Load() {
		received := false
		for _, ic := range cfg.Assigned {
			dev, ok := cfg.Devices[ic.ID]
			if !ok {
				continue
			}
			frames := dev.RxBurst(0, BurstSize)
			if len(frames) == 0 {
				continue
			}
			received = true
			for _, f := range frames {
				handleFrame(cfg, ic, f)
			}
		}
		if !received {
			time.Sleep(IdleBackoff)
		}
	}
}

func handleFrame(cfg Config, ic iface.Config, f substrate.Frame) {
	et, ok := frame.Valid(f, ic.MAC)
	if !ok {
		if cfg.Log != nil {
			cfg.Log.Debugw("dropped malformed frame", "worker", cfg.ID, "iface", ic.ID)
		}
		return
	}

	switch et {
	case frame.TypeIPv4:
		port, ok := ipv4.Forward(cfg.FIB, f, cfg.ownedMAC)
		if !ok {
			return
		}
		cfg.transmit(port, f)
	case frame.TypeARP:
		if !arp.Handle(f, cfg.AllInterfaces, ic) {
			return
		}
		cfg.transmit(ic.ID, f)
	default:
		// IPv6 is recognized by the frame validator but out of scope
		// for this router; every other EtherType was already rejected.
		return
	}
}

func (cfg Config) ownedMAC(port uint8) ([6]byte, bool) {
	dev, ok := cfg.Devices[port]
	if !ok {
		return [6]byte{}, false
	}
	return dev.OwnedMAC(), true
}

// transmit attempts to send f on port's TX queue, retrying up to
// MaxTXRetry times before giving up and letting the frame be dropped
// (spec.md §4.3/§4.4).
func (cfg Config) transmit(port uint8, f substrate.Frame) {
	dev, ok := cfg.Devices[port]
	if !ok {
		return
	}
	for i := 0; i < MaxTXRetry; i++ {
		if dev.TxBurst(cfg.TXQueue, []substrate.Frame{f}) > 0 {
			return
		}
	}
	if cfg.Log != nil {
		cfg.Log.Debugw("dropped frame: TX queue full", "worker", cfg.ID, "port", port)
	}
}
