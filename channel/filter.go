package channel

import (
	"sync"
	"sync/atomic"
)

const halfIDSpace = 0x8000

// PacketFilter remembers recently seen packet ids. The 16-bit id space is
// split into two halves with one seen-map each. An id in the lower quarter
// of one half clears the other half, so ids may wrap around indefinitely as
// long as reordering stays within a quarter of the space.
type PacketFilter struct {
	mu      sync.Mutex
	seen    [2][halfIDSpace]bool
	cleared [2]bool
}

func NewPacketFilter() *PacketFilter {
	return &PacketFilter{cleared: [2]bool{true, true}}
}

// CheckDuplicatePacketID marks id as seen and reports whether it already was.
func (pf *PacketFilter) CheckDuplicatePacketID(id uint16) bool {
	half, idx := id/halfIDSpace, id%halfIDSpace
	other := 1 - half

	pf.mu.Lock()
	defer pf.mu.Unlock()
	dup := pf.seen[half][idx]
	pf.seen[half][idx] = true
	pf.cleared[half] = false
	if idx < halfIDSpace/2 && !pf.cleared[other] {
		pf.seen[other] = [halfIDSpace]bool{}
		pf.cleared[other] = true
	}
	return dup
}

func NewPacketID(idIncrement *atomic.Uint32) uint16 {
	return uint16(idIncrement.Add(1) - 1)
}
