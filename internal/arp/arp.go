// Package arp implements the ARP responder spec.md §4.4 describes: it
// answers requests for IPv4 addresses owned by any registered router
// interface, building the reply in place. There is no ARP cache and the
// router never issues ARP requests of its own — next-hop MACs are
// supplied statically at configuration time.
package arp

import (
	"encoding/binary"

	"github.com/packetwire/dprouter/internal/frame"
	"github.com/packetwire/dprouter/internal/iface"
)

const (
	hdrEthernet = 1
	proIPv4     = 0x0800
	opRequest   = 1
	opReply     = 2

	// HeaderLen is the fixed 28-byte ARP payload for Ethernet/IPv4
	// resolution: hrd,pro,hln,pln,op (8 bytes) + sha(6)+spa(4)+tha(6)+tpa(4).
	HeaderLen = 28
)

// Header is a view onto the ARP payload inside a frame buffer, starting
// right after the Ethernet header.
type Header []byte

func (h Header) hrd() uint16    { return binary.BigEndian.Uint16(h[0:2]) }
func (h Header) pro() uint16    { return binary.BigEndian.Uint16(h[2:4]) }
func (h Header) hln() byte      { return h[4] }
func (h Header) pln() byte      { return h[5] }
func (h Header) op() uint16     { return binary.BigEndian.Uint16(h[6:8]) }
func (h Header) setOp(op uint16) { binary.BigEndian.PutUint16(h[6:8], op) }

func (h Header) senderMAC() [6]byte {
	var mac [6]byte
	copy(mac[:], h[8:14])
	return mac
}
func (h Header) setSenderMAC(mac [6]byte) { copy(h[8:14], mac[:]) }

func (h Header) senderIP() uint32         { return binary.BigEndian.Uint32(h[14:18]) }
func (h Header) setSenderIP(ip uint32)    { binary.BigEndian.PutUint32(h[14:18], ip) }

func (h Header) targetMAC() [6]byte {
	var mac [6]byte
	copy(mac[:], h[18:24])
	return mac
}
func (h Header) setTargetMAC(mac [6]byte) { copy(h[18:24], mac[:]) }

func (h Header) targetIP() uint32      { return binary.BigEndian.Uint32(h[24:28]) }
func (h Header) setTargetIP(ip uint32) { binary.BigEndian.PutUint32(h[24:28], ip) }

// valid implements spec.md §4.4's admission rules for the ARP payload
// itself (hardware/protocol type and length, and target-IP ownership by
// any registered interface — not necessarily the receiving one).
func valid(h Header, interfaces []iface.Config) bool {
	if h.hrd() != hdrEthernet || h.hln() != 6 {
		return false
	}
	if h.pro() != proIPv4 || h.pln() != 4 {
		return false
	}
	_, owned := iface.OwnsAddr(interfaces, h.targetIP())
	return owned
}

// Handle implements spec.md §4.4: given a frame received on receiving,
// it mutates buf in place into an ARP reply when it carries a valid
// request for an address owned by any of interfaces, and reports whether
// the (mutated) frame should now be transmitted on receiving. Non-request
// opcodes and invalid payloads are reported as ok=false; the caller drops
// the frame.
func Handle(buf []byte, interfaces []iface.Config, receiving iface.Config) (ok bool) {
	if len(buf) < frame.HeaderLen+HeaderLen {
		return false
	}
	eth := frame.Header(buf[:frame.HeaderLen])
	h := Header(buf[frame.HeaderLen : frame.HeaderLen+HeaderLen])

	if !valid(h, interfaces) {
		return false
	}
	if h.op() != opRequest {
		return false
	}

	senderMAC := h.senderMAC()
	senderIP := h.senderIP()
	targetIP := h.targetIP()

	eth.SetDst(eth.Src())
	eth.SetSrc(receiving.MAC)

	h.setOp(opReply)
	h.setSenderMAC(receiving.MAC)
	h.setSenderIP(targetIP)
	h.setTargetMAC(senderMAC)
	h.setTargetIP(senderIP)

	return true
}
