// Package dispatch implements the startup orchestration spec.md §4.6
// describes: substrate init, a single FIB build from an already parsed
// configuration, worker/interface placement, and signal-driven shutdown.
package dispatch

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/packetwire/dprouter/internal/config"
	"github.com/packetwire/dprouter/internal/fib"
	"github.com/packetwire/dprouter/internal/iface"
	"github.com/packetwire/dprouter/internal/substrate"
	"github.com/packetwire/dprouter/internal/worker"
)

// Dispatcher owns the startup sequence and the lifetime of every
// forwarding worker. Build it with New, then call Run.
type Dispatcher struct {
	Controller substrate.Controller
	Config     config.Config
	Log        *zap.SugaredLogger

	// LcoreCount is the number of logical cores available for worker
	// placement, analogous to the source's rte_lcore_count(). It
	// defaults to runtime.NumCPU() via New when left zero.
	LcoreCount int
}

// New returns a Dispatcher ready to Run.
func New(ctrl substrate.Controller, cfg config.Config, lcoreCount int, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if lcoreCount == 0 {
		lcoreCount = runtime.NumCPU()
	}
	return &Dispatcher{Controller: ctrl, Config: cfg, Log: log, LcoreCount: lcoreCount}
}

// workerCount applies spec.md §4.6 step 4: worker count = lcore_count -
// reserved, plus one when the master core also does work, floored at 1.
func (d *Dispatcher) workerCount() int {
	n := d.LcoreCount - d.Config.ReservedCores
	if d.Config.MasterDoesWork {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run executes the full startup-to-shutdown sequence: it blocks until
// every worker has exited, which happens when SIGINT/SIGTERM arrives or
// quit is externally set (e.g. by a test).
func Run(ctrl substrate.Controller, cfg config.Config, lcoreCount int, log *zap.SugaredLogger, quit *atomic.Bool) error {
	d := New(ctrl, cfg, lcoreCount, log)
	return d.run(quit)
}

func (d *Dispatcher) run(quit *atomic.Bool) error {
	if err := d.Controller.Init(); err != nil {
		return fmt.Errorf("dispatch: substrate init: %w", err)
	}

	tbl := fib.New()
	for _, r := range d.Config.Routes {
		nh := fib.NextHop{MAC: r.NextHop, Port: r.Iface}
		if err := tbl.AddRoute(prefixHost(r), r.Prefix.Bits(), nh); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
	}
	if err := tbl.Build(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	numWorkers := d.workerCount()
	ifaces := make([]iface.Config, len(d.Config.Interfaces))
	copy(ifaces, d.Config.Interfaces)

	devices := make(map[uint8]substrate.Device, len(ifaces))
	for i, ic := range ifaces {
		dev, err := d.Controller.ConfigureDevice(ic.ID, uint16(numWorkers))
		if err != nil {
			return fmt.Errorf("dispatch: configure device %d: %w", ic.ID, err)
		}
		devices[ic.ID] = dev
		ifaces[i].MAC = dev.OwnedMAC()
	}

	assignments := make([][]iface.Config, numWorkers)
	for i, ic := range ifaces {
		w := i % numWorkers
		assignments[w] = append(assignments[w], ic)
	}

	if quit == nil {
		quit = &atomic.Bool{}
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			quit.Store(true)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		cfg := worker.Config{
			ID:            i,
			TXQueue:       uint16(i),
			Assigned:      assignments[i],
			AllInterfaces: ifaces,
			Devices:       devices,
			FIB:           tbl,
			Quit:          quit,
			Log:           d.Log,
		}
		go func() {
			defer wg.Done()
			worker.Run(cfg)
		}()
	}
	wg.Wait()
	return nil
}

// prefixHost converts a route's netip.Prefix into the host-order uint32
// the FIB expects.
func prefixHost(r config.Route) uint32 {
	a4 := r.Prefix.Addr().As4()
	return uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])
}
