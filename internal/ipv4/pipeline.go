package ipv4

import (
	"github.com/packetwire/dprouter/internal/fib"
	"github.com/packetwire/dprouter/internal/frame"
)

// OwnedMACFunc resolves the owned Ethernet address of the egress
// interface identified by port, or ok=false if no such interface is
// configured.
type OwnedMACFunc func(port uint8) (mac [6]byte, ok bool)

// ValidHeader implements spec.md §4.3 / RFC 1812 §5.2.2 in the mandated
// order: checksum, version, IHL, total-length-vs-IHL, total-length-vs-
// frame, TTL. The checksum is computed over the fixed 20-byte header
// only, matching the source's is_ipv4_hdr_valid (which checksums a fixed
// struct ipv4_hdr regardless of IHL) — this router does not carry IPv4
// options any further than that.
func ValidHeader(hdr Header, framePayloadLen int) bool {
	if len(hdr) < MinHeaderLen {
		return false
	}

	want := hdr.Checksum()
	var buf [MinHeaderLen]byte
	copy(buf[:], hdr[:MinHeaderLen])
	buf[10], buf[11] = 0, 0
	if checksum(buf[:]) != want {
		return false
	}

	if hdr.Version() != 4 {
		return false
	}

	ihl := hdr.IHL()
	if ihl < 5 {
		return false
	}

	totalLen := int(hdr.TotalLength())
	if totalLen < 4*ihl {
		return false
	}
	if totalLen > framePayloadLen {
		return false
	}

	if hdr.TTL() == 0 {
		return false
	}
	return true
}

// Forward implements spec.md §4.3's forward transform: it mutates buf
// (an Ethernet frame containing an IPv4 datagram) in place — decrementing
// TTL, recomputing the header checksum, and rewriting both MAC
// addresses — and returns the egress interface id to transmit on. ok is
// false whenever the packet must be dropped instead, and buf is left
// untouched beyond whatever ValidHeader already inspected.
//
// The no-route check happens before the TTL decrement and checksum
// recompute, and both of those happen before the MAC rewrite, exactly as
// spec.md §4.3 requires: a dropped packet never gets its MAC rewritten.
func Forward(tbl *fib.Table, buf []byte, ownedMAC OwnedMACFunc) (port uint8, ok bool) {
	eth := frame.Header(buf[:frame.HeaderLen])
	hdr := Header(buf[frame.HeaderLen:])

	if !ValidHeader(hdr, len(buf)-frame.HeaderLen) {
		return 0, false
	}

	nh, found := tbl.Lookup(hdr.DstAddrHost())
	if !found {
		return 0, false
	}
	ownMAC, found := ownedMAC(nh.Port)
	if !found {
		return 0, false
	}

	ttl := hdr.TTL() - 1
	if ttl == 0 {
		// TODO: emit a TTL-exceeded ICMP reply once ICMP generation exists.
		return 0, false
	}
	hdr.SetTTL(ttl)

	hdr.SetChecksum(0)
	var buf20 [MinHeaderLen]byte
	copy(buf20[:], hdr[:MinHeaderLen])
	hdr.SetChecksum(checksum(buf20[:]))

	eth.SetSrc(ownMAC)
	eth.SetDst(nh.MAC)

	return nh.Port, true
}
