// Package substrate defines the boundary between the forwarding core and
// the packet-I/O substrate spec.md §1 treats as an external collaborator:
// interface configuration, queue setup, and burst RX/TX. Nothing in this
// package talks to real hardware — it only describes the surface the
// core programs against, so that a kernel-bypass binding and an
// in-memory test double (see the sim subpackage) can be swapped in
// behind the same interfaces.
package substrate

// Frame is a single layer-2 frame buffer. Ownership is implicit: whoever
// currently holds the slice may read and mutate it; there is no manual
// pool-release step the way there is for a DPDK mbuf; a dropped frame is
// simply a slice nothing references anymore, and Go's garbage collector
// reclaims it.
type Frame []byte

// Device is the per-interface burst RX/TX surface the forwarding plane
// consumes. Queue ids partition access: at most one worker ever calls
// RxBurst for interface's RX queue 0, and at most one worker ever calls
// TxBurst with a given TX queue id — this is what lets the forwarding
// loop run lock-free (spec.md §5).
type Device interface {
	// OwnedMAC returns the interface's configured Ethernet address.
	OwnedMAC() [6]byte

	// RxBurst polls queue for up to burst frames, returning however many
	// were available (possibly zero). It never blocks.
	RxBurst(queue uint16, burst int) []Frame

	// TxBurst attempts to enqueue frames on queue for transmission,
	// returning how many were accepted. It never blocks; a caller that
	// gets back fewer than len(frames) is expected to retry the
	// remainder or drop them.
	TxBurst(queue uint16, frames []Frame) (accepted int)
}

// Controller bootstraps the packet-I/O substrate and configures devices.
// It corresponds to the source's init_dpdk/configure_device pair.
type Controller interface {
	// Init bootstraps the substrate (EAL init, driver probing, ...).
	Init() error

	// ConfigureDevice brings up ifaceID with one RX queue and
	// numTxQueues TX queues, returning the Device handle for it.
	ConfigureDevice(ifaceID uint8, numTxQueues uint16) (Device, error)
}
