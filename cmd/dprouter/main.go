// Command dprouter is the entry point for the poll-mode IPv4 router: it
// parses the command line, builds the FIB, and runs the forwarding
// workers until SIGINT or SIGTERM.
package main

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/packetwire/dprouter/internal/config"
	"github.com/packetwire/dprouter/internal/dispatch"
	"github.com/packetwire/dprouter/internal/substrate/sim"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dprouter: logger init: %v\n", err)
		return 1
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Parse("dprouter", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// This module implements the forwarding core only; the kernel-bypass
	// packet-I/O substrate is an external collaborator (spec.md §1). The
	// in-memory sim.Controller stands in for it so the binary runs
	// standalone; a real deployment links a substrate.Controller backed
	// by the actual NIC driver in its place.
	ctrl := sim.New()

	var quit atomic.Bool
	if err := dispatch.Run(ctrl, cfg, runtime.NumCPU(), log, &quit); err != nil {
		log.Errorw("dispatcher exited with error", "error", err)
		return 1
	}
	return 0
}
