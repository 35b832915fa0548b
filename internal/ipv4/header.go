// Package ipv4 implements RFC 1812 §5.2.2 header validation and the
// forwarding transform spec.md §4.3 describes: route lookup, TTL
// decrement, checksum recompute, and MAC rewrite.
package ipv4

import "encoding/binary"

// MinHeaderLen is the minimum IPv4 header length (IHL == 5, no options).
const MinHeaderLen = 20

// Header is a view onto an IPv4 header living inside a frame buffer. It
// does not include any Ethernet framing.
type Header []byte

// VersionIHL returns the raw version_ihl byte.
func (h Header) VersionIHL() byte { return h[0] }

// Version returns the IP version nibble.
func (h Header) Version() int { return int(h[0] >> 4) }

// IHL returns the header length in 32-bit words.
func (h Header) IHL() int { return int(h[0] & 0x0f) }

// TotalLength returns the total datagram length field.
func (h Header) TotalLength() uint16 { return binary.BigEndian.Uint16(h[2:4]) }

// TTL returns the time-to-live field.
func (h Header) TTL() byte { return h[8] }

// SetTTL sets the time-to-live field.
func (h Header) SetTTL(ttl byte) { h[8] = ttl }

// Checksum returns the header checksum field.
func (h Header) Checksum() uint16 { return binary.BigEndian.Uint16(h[10:12]) }

// SetChecksum sets the header checksum field.
func (h Header) SetChecksum(c uint16) { binary.BigEndian.PutUint16(h[10:12], c) }

// DstAddrHost returns the destination address converted to host order,
// per spec.md §4.1's byte-order convention: conversion happens here, at
// the pipeline boundary, not inside the FIB.
func (h Header) DstAddrHost() uint32 {
	return binary.BigEndian.Uint32(h[16:20])
}
