package frame

import "testing"

func mkFrame(dst, src [6]byte, et EtherType, payloadLen int) []byte {
	buf := make([]byte, HeaderLen+payloadLen)
	h := Header(buf[:HeaderLen])
	h.SetDst(dst)
	h.SetSrc(src)
	h.SetType(et)
	return buf
}

var ownMAC = [6]byte{1, 2, 3, 4, 5, 6}
var otherMAC = [6]byte{9, 9, 9, 9, 9, 9}

func TestValidAcceptsOwnedAndBroadcast(t *testing.T) {
	for _, dst := range [][6]byte{ownMAC, broadcast} {
		buf := mkFrame(dst, otherMAC, TypeIPv4, 20)
		if _, ok := Valid(buf, ownMAC); !ok {
			t.Fatalf("dst=%v: expected valid", dst)
		}
	}
}

func TestValidRejectsNotForUs(t *testing.T) {
	buf := mkFrame(otherMAC, ownMAC, TypeIPv4, 20)
	if _, ok := Valid(buf, ownMAC); ok {
		t.Fatalf("expected rejection for unrelated destination MAC")
	}
}

func TestValidRejectsTooShort(t *testing.T) {
	if _, ok := Valid(make([]byte, HeaderLen-1), ownMAC); ok {
		t.Fatalf("expected rejection: shorter than an Ethernet header")
	}
}

func TestValidRejectsUnknownEtherType(t *testing.T) {
	buf := mkFrame(ownMAC, otherMAC, 0x1234, 64)
	if _, ok := Valid(buf, ownMAC); ok {
		t.Fatalf("expected rejection for unknown EtherType")
	}
}

func TestValidRejectsShortPayload(t *testing.T) {
	buf := mkFrame(ownMAC, otherMAC, TypeIPv4, 19)
	if _, ok := Valid(buf, ownMAC); ok {
		t.Fatalf("expected rejection for IPv4 payload shorter than 20 bytes")
	}
	buf = mkFrame(ownMAC, otherMAC, TypeARP, 27)
	if _, ok := Valid(buf, ownMAC); ok {
		t.Fatalf("expected rejection for ARP payload shorter than 28 bytes")
	}
}

func TestValidRejectsOversize(t *testing.T) {
	buf := mkFrame(ownMAC, otherMAC, TypeIPv4, MaxLen-HeaderLen+1)
	if _, ok := Valid(buf, ownMAC); ok {
		t.Fatalf("expected rejection for frame exceeding MaxLen")
	}
}

func TestValidAcceptsIPv6AtMinimumPayload(t *testing.T) {
	buf := mkFrame(ownMAC, otherMAC, TypeIPv6, 40)
	et, ok := Valid(buf, ownMAC)
	if !ok || et != TypeIPv6 {
		t.Fatalf("expected valid IPv6 frame, got ok=%v et=%v", ok, et)
	}
}
