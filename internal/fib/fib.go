// Package fib implements a DIR-24-8 longest-prefix-match forwarding
// information base for IPv4.
//
// The table is built once from a set of routes and is read-only
// afterwards: Lookup never allocates, never blocks, and is safe for
// concurrent use by any number of readers once Build has returned.
package fib

import "fmt"

const (
	// tblPrefixLen is the stride of the direct-indexed first level.
	tblPrefixLen = 24
	tbl24Size    = 1 << tblPrefixLen
	longBlockLen = 1 << (32 - tblPrefixLen) // 256 low-byte slots per block

	// MaxNextHops is the number of distinct (prefix, next-hop) entries the
	// table can hold. InvalidNH is the reserved sentinel meaning "no route".
	MaxNextHops = 255
	InvalidNH   = 255

	// MaxLongBlocks bounds the number of tbl_long blocks that can be
	// allocated for prefixes longer than 24 bits.
	MaxLongBlocks = 255
)

// NextHop is the 7-byte record a matching route resolves to: the egress
// interface's destination MAC and its interface id.
type NextHop struct {
	MAC  [6]byte
	Port uint8
}

type nextHopInfo struct {
	ip     uint32
	prefix uint8
	nh     NextHop
	inUse  bool
}

// tbl24Slot is one entry of the first-level table. It plays the role of
// the source's bit-packed {is_long:1, payload:15} union, but as two plain
// fields instead of one packed sentinel value — spec.md §9 explicitly
// allows this as an implementation discretion, and it avoids having to
// special-case the 0xFFFF "empty" value against the is_long=1 reading.
type tbl24Slot struct {
	valid   bool
	isLong  bool
	payload uint16 // nh id when !isLong, tbl_long block index when isLong
}

// Table is a build-once, read-many IPv4 FIB. The zero value is ready for
// AddRoute calls; call Build exactly once before any Lookup.
type Table struct {
	nextHops [MaxNextHops]nextHopInfo
	nhCount  uint16

	tbl24   []tbl24Slot // len == tbl24Size, allocated lazily by Build
	tblLong [][longBlockLen]uint16

	built bool
}

// New returns an empty Table ready to accumulate routes via AddRoute.
func New() *Table {
	return &Table{}
}

// AddRoute records a route (prefixIP/prefixLen → nh) to be compiled into
// the table by the next call to Build. prefixIP is a host-order IPv4
// address; prefixLen greater than 32 is clamped to 32. Returns an error
// once MaxNextHops routes have already been recorded — the caller is
// expected to treat this as fatal at startup, same as the source's
// exit(EXIT_FAILURE).
func (t *Table) AddRoute(prefixIP uint32, prefixLen uint8, nh NextHop) error {
	if t.nhCount >= MaxNextHops {
		return fmt.Errorf("fib: cannot add any more routes: capacity %d exceeded", MaxNextHops)
	}
	if prefixLen > 32 {
		prefixLen = 32
	}
	t.nextHops[t.nhCount] = nextHopInfo{
		ip:     prefixIP,
		prefix: prefixLen,
		nh:     nh,
		inUse:  true,
	}
	t.nhCount++
	return nil
}

// Build finalizes the table from the routes accumulated so far. It is
// idempotent in the sense that calling it again re-derives the same
// tbl24/tbl_long contents from the same accumulated routes, but it is
// intended to be called exactly once.
func (t *Table) Build() error {
	t.tbl24 = make([]tbl24Slot, tbl24Size)
	t.tblLong = t.tblLong[:0]

	for nhID := uint16(0); nhID < t.nhCount; nhID++ {
		info := &t.nextHops[nhID]
		if !info.inUse {
			continue
		}
		if info.prefix <= tblPrefixLen {
			if err := t.insertShort(nhID); err != nil {
				return err
			}
		} else {
			if err := t.insertLong(nhID); err != nil {
				return err
			}
		}
	}
	t.built = true
	return nil
}

// Lookup returns the next hop for a host-order IPv4 destination address,
// or ok=false if no configured route covers it. Lookup is pure,
// allocation-free, and takes no locks — it is meant to be called
// concurrently by every forwarding worker once Build has returned.
func (t *Table) Lookup(ip uint32) (NextHop, bool) {
	idx := ip >> (32 - tblPrefixLen)
	slot := t.tbl24[idx]
	if !slot.valid {
		return NextHop{}, false
	}
	if !slot.isLong {
		return t.nextHops[slot.payload].nh, true
	}
	low := ip & (longBlockLen - 1)
	nhID := t.tblLong[slot.payload][low]
	if nhID == InvalidNH {
		return NextHop{}, false
	}
	return t.nextHops[nhID].nh, true
}

// wins reports whether a route with prefix length newLen should replace
// whatever currently occupies a slot claimed by a route of length
// curLen, under the tie-break rule spec.md §4.1/§9 fixes: "later
// insertion with prefix length >= existing wins".
func wins(newLen, curLen uint8) bool {
	return newLen >= curLen
}

// insertShort expands a <=24-bit prefix across the contiguous tbl24 range
// it covers, and into any tbl_long blocks already promoted within that
// range.
func (t *Table) insertShort(nhID uint16) error {
	info := &t.nextHops[nhID]
	shift := tblPrefixLen - info.prefix
	base := (info.ip >> (32 - info.prefix)) << shift
	span := uint32(1) << shift
	for idx := base; idx < base+span; idx++ {
		if err := t.fillShortSlot(nhID, idx); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) fillShortSlot(nhID uint16, idx uint32) error {
	slot := &t.tbl24[idx]
	if !slot.valid {
		slot.valid = true
		slot.isLong = false
		slot.payload = nhID
		return nil
	}
	if !slot.isLong {
		if wins(t.nextHops[nhID].prefix, t.nextHops[slot.payload].prefix) {
			slot.payload = nhID
		}
		return nil
	}
	return t.fillLongBlockRange(nhID, slot.payload, 0, longBlockLen-1)
}

// insertLong promotes (or reuses) the single tbl24 slot ip>>8 refers to
// into a tbl_long block, then fills the low-byte range the prefix covers.
func (t *Table) insertLong(nhID uint16) error {
	info := &t.nextHops[nhID]
	idx := info.ip >> (32 - tblPrefixLen)
	slot := &t.tbl24[idx]

	if !slot.valid {
		blockIdx, err := t.allocLongBlock()
		if err != nil {
			return err
		}
		slot.valid = true
		slot.isLong = true
		slot.payload = blockIdx
		lo, hi := longRange(info)
		return t.fillLongBlockRange(nhID, blockIdx, lo, hi)
	}

	if !slot.isLong {
		// Promote: the existing <=24 route must be propagated across the
		// whole new block after the new >24 route claims its own range.
		shortNH := slot.payload
		blockIdx, err := t.allocLongBlock()
		if err != nil {
			return err
		}
		slot.isLong = true
		slot.payload = blockIdx
		lo, hi := longRange(info)
		if err := t.fillLongBlockRange(nhID, blockIdx, lo, hi); err != nil {
			return err
		}
		return t.fillLongBlockRange(shortNH, blockIdx, 0, longBlockLen-1)
	}

	lo, hi := longRange(info)
	return t.fillLongBlockRange(nhID, slot.payload, lo, hi)
}

// longRange computes the [lo, hi] low-byte range (bits 24..(32-prefix))
// that a >24-bit prefix occupies inside a tbl_long block.
func longRange(info *nextHopInfo) (lo, hi uint32) {
	shift := 32 - info.prefix
	lo = (info.ip & (longBlockLen - 1)) &^ ((uint32(1) << shift) - 1)
	hi = lo | ((uint32(1) << shift) - 1)
	return lo, hi
}

func (t *Table) fillLongBlockRange(nhID uint16, blockIdx uint16, lo, hi uint32) error {
	block := &t.tblLong[blockIdx]
	for i := lo; i <= hi; i++ {
		cur := block[i]
		if cur == InvalidNH {
			block[i] = nhID
			continue
		}
		if wins(t.nextHops[nhID].prefix, t.nextHops[cur].prefix) {
			block[i] = nhID
		}
	}
	return nil
}

func (t *Table) allocLongBlock() (uint16, error) {
	if len(t.tblLong) >= MaxLongBlocks {
		return 0, fmt.Errorf("fib: tbl_long capacity %d exceeded", MaxLongBlocks)
	}
	var block [longBlockLen]uint16
	for i := range block {
		block[i] = InvalidNH
	}
	t.tblLong = append(t.tblLong, block)
	return uint16(len(t.tblLong) - 1), nil
}
