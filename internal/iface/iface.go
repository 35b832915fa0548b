// Package iface holds the immutable, process-wide description of a
// router interface: its numeric id, owned IPv4 address, and owned
// Ethernet address. Once registered by the dispatcher a Config
// is never mutated; workers only ever see a borrowed read-only slice.
package iface

import "net/netip"

// Config is a fixed per-interface record, read from the packet-I/O
// substrate at registration time and never changed afterwards.
type Config struct {
	ID   uint8
	Addr netip.Addr
	MAC  [6]byte
}

// Broadcast is the Ethernet all-ones broadcast address.
var Broadcast = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// AddrHost converts the interface's owned IPv4 address to the host-order
// uint32 representation the FIB and IPv4 pipeline operate on.
func (c Config) AddrHost() uint32 {
	a4 := c.Addr.As4()
	return uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])
}

// ByID returns the Config for ifaceID within confs, and whether it was
// found.
func ByID(confs []Config, ifaceID uint8) (Config, bool) {
	for _, c := range confs {
		if c.ID == ifaceID {
			return c, true
		}
	}
	return Config{}, false
}

// OwnsAddr reports whether any interface in confs owns host-order IPv4
// address addr. Used by the ARP responder, which must check ownership
// against every registered interface, not just the one that received the
// frame.
func OwnsAddr(confs []Config, addr uint32) (Config, bool) {
	for _, c := range confs {
		if c.AddrHost() == addr {
			return c, true
		}
	}
	return Config{}, false
}
