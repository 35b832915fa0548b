package ipv4

import (
	"testing"

	"github.com/packetwire/dprouter/internal/fib"
	"github.com/packetwire/dprouter/internal/frame"
)

// buildFrame constructs an Ethernet+IPv4 frame with a correct header
// checksum, destined to dstIP (host order), with the given TTL.
func buildFrame(dstIP uint32, ttl byte) []byte {
	buf := make([]byte, frame.HeaderLen+MinHeaderLen)
	eth := frame.Header(buf[:frame.HeaderLen])
	eth.SetType(frame.TypeIPv4)

	hdr := Header(buf[frame.HeaderLen:])
	hdr[0] = 0x45 // version 4, IHL 5
	hdr[8] = ttl
	hdr[9] = 6 // protocol, irrelevant to this pipeline
	putU16(hdr[2:4], uint16(MinHeaderLen))
	putU32(hdr[12:16], 0x0a000001)
	putU32(hdr[16:20], dstIP)
	hdr.SetChecksum(0)
	var tmp [MinHeaderLen]byte
	copy(tmp[:], hdr[:MinHeaderLen])
	hdr.SetChecksum(checksum(tmp[:]))
	return buf
}

func putU16(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func ip4(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}

func buildTable(t *testing.T) *fib.Table {
	t.Helper()
	tbl := fib.New()
	if err := tbl.AddRoute(ip4(10, 0, 10, 0), 24, fib.NextHop{MAC: [6]byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}, Port: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddRoute(ip4(10, 0, 10, 10), 32, fib.NextHop{MAC: [6]byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}, Port: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Build(); err != nil {
		t.Fatal(err)
	}
	return tbl
}

var ownedMACs = map[uint8][6]byte{
	0: {0x10, 0, 0, 0, 0, 0},
	1: {0x10, 0, 0, 0, 0, 1},
}

func lookupOwnedMAC(port uint8) ([6]byte, bool) {
	mac, ok := ownedMACs[port]
	return mac, ok
}

// TestScenarioS3 matches spec.md §8 scenario S3.
func TestScenarioS3(t *testing.T) {
	tbl := buildTable(t)
	buf := buildFrame(ip4(10, 0, 10, 10), 64)

	port, ok := Forward(tbl, buf, lookupOwnedMAC)
	if !ok {
		t.Fatalf("expected forward to succeed")
	}
	if port != 1 {
		t.Fatalf("port = %d, want 1", port)
	}

	hdr := Header(buf[frame.HeaderLen:])
	if hdr.TTL() != 63 {
		t.Fatalf("TTL = %d, want 63", hdr.TTL())
	}
	var tmp [MinHeaderLen]byte
	copy(tmp[:], hdr[:MinHeaderLen])
	tmp[10], tmp[11] = 0, 0
	if checksum(tmp[:]) != hdr.Checksum() {
		t.Fatalf("checksum invalid after forward")
	}

	eth := frame.Header(buf[:frame.HeaderLen])
	if eth.Src() != ownedMACs[1] {
		t.Fatalf("src MAC = %v, want egress owned MAC", eth.Src())
	}
	if eth.Dst() != ([6]byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb}) {
		t.Fatalf("dst MAC = %v, want next-hop MAC", eth.Dst())
	}
}

// TestScenarioS5 matches spec.md §8 scenario S5: TTL=1 is dropped.
func TestScenarioS5(t *testing.T) {
	tbl := buildTable(t)
	buf := buildFrame(ip4(10, 0, 10, 10), 1)
	if _, ok := Forward(tbl, buf, lookupOwnedMAC); ok {
		t.Fatalf("expected drop for TTL=1")
	}
}

// TestScenarioS6 matches spec.md §8 scenario S6: no matching route.
func TestScenarioS6(t *testing.T) {
	tbl := buildTable(t)
	buf := buildFrame(ip4(203, 0, 113, 7), 64)
	if _, ok := Forward(tbl, buf, lookupOwnedMAC); ok {
		t.Fatalf("expected drop for unmatched destination")
	}
}

func TestForwardDropsOnBadChecksum(t *testing.T) {
	tbl := buildTable(t)
	buf := buildFrame(ip4(10, 0, 10, 10), 64)
	buf[frame.HeaderLen+10] ^= 0xff // corrupt checksum
	if _, ok := Forward(tbl, buf, lookupOwnedMAC); ok {
		t.Fatalf("expected drop for invalid checksum")
	}
}

func TestValidHeaderRejectsBadVersion(t *testing.T) {
	buf := buildFrame(ip4(10, 0, 10, 10), 64)
	hdr := Header(buf[frame.HeaderLen:])
	hdr[0] = 0x55 // version 5
	hdr.SetChecksum(0)
	var tmp [MinHeaderLen]byte
	copy(tmp[:], hdr[:MinHeaderLen])
	hdr.SetChecksum(checksum(tmp[:]))
	if ValidHeader(hdr, MinHeaderLen) {
		t.Fatalf("expected rejection for non-IPv4 version")
	}
}

func TestValidHeaderRejectsShortTotalLength(t *testing.T) {
	buf := buildFrame(ip4(10, 0, 10, 10), 64)
	hdr := Header(buf[frame.HeaderLen:])
	putU16(hdr[2:4], 10) // shorter than 4*IHL
	hdr.SetChecksum(0)
	var tmp [MinHeaderLen]byte
	copy(tmp[:], hdr[:MinHeaderLen])
	hdr.SetChecksum(checksum(tmp[:]))
	if ValidHeader(hdr, MinHeaderLen) {
		t.Fatalf("expected rejection for total length shorter than header")
	}
}
