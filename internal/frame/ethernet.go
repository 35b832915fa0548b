// Package frame implements the Ethernet II frame layout and the
// admission check spec.md §4.2 requires before a frame is handed to any
// higher-layer handler.
package frame

import "encoding/binary"

// HeaderLen is the fixed Ethernet II header size: 6 bytes destination
// MAC, 6 bytes source MAC, 2 bytes EtherType.
const HeaderLen = 14

// MaxLen is ETHER_MAX_LEN - ETHER_CRC_LEN: the largest frame this router
// will accept or emit, CRC excluded.
const MaxLen = 1514

// EtherType identifies the payload carried by an Ethernet frame.
type EtherType uint16

const (
	TypeIPv4 EtherType = 0x0800
	TypeARP  EtherType = 0x0806
	TypeIPv6 EtherType = 0x86DD
)

// minPayloadLen is the smallest payload spec.md §4.2 accepts for each
// recognized EtherType.
func minPayloadLen(et EtherType) (int, bool) {
	switch et {
	case TypeIPv4:
		return 20, true
	case TypeIPv6:
		return 40, true
	case TypeARP:
		return 28, true
	default:
		return 0, false
	}
}

// Header is a view onto the first HeaderLen bytes of a frame buffer.
type Header []byte

// Dst returns the destination MAC address.
func (h Header) Dst() [6]byte {
	var mac [6]byte
	copy(mac[:], h[0:6])
	return mac
}

// SetDst sets the destination MAC address.
func (h Header) SetDst(mac [6]byte) {
	copy(h[0:6], mac[:])
}

// Src returns the source MAC address.
func (h Header) Src() [6]byte {
	var mac [6]byte
	copy(mac[:], h[6:12])
	return mac
}

// SetSrc sets the source MAC address.
func (h Header) SetSrc(mac [6]byte) {
	copy(h[6:12], mac[:])
}

// Type returns the EtherType field.
func (h Header) Type() EtherType {
	return EtherType(binary.BigEndian.Uint16(h[12:14]))
}

// SetType sets the EtherType field.
func (h Header) SetType(et EtherType) {
	binary.BigEndian.PutUint16(h[12:14], uint16(et))
}
