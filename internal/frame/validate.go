package frame

// Valid implements spec.md §4.2: a frame is acceptable iff it is long
// enough to carry an Ethernet header, its destination MAC is either the
// broadcast address or ownedMAC, its EtherType is recognized, it is long
// enough for that EtherType's minimum payload, and it does not exceed
// MaxLen. On success it returns the frame's EtherType; on failure the
// caller must drop the frame without further inspection.
func Valid(buf []byte, ownedMAC [6]byte) (EtherType, bool) {
	if len(buf) < HeaderLen {
		return 0, false
	}
	h := Header(buf[:HeaderLen])
	dst := h.Dst()
	if dst != broadcast && dst != ownedMAC {
		return 0, false
	}
	et := h.Type()
	minPayload, known := minPayloadLen(et)
	if !known {
		return 0, false
	}
	if len(buf) < HeaderLen+minPayload {
		return 0, false
	}
	if len(buf) > MaxLen {
		return 0, false
	}
	return et, true
}

var broadcast = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
