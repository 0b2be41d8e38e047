package pipeline

// OrderedAssembler restores submission order over out-of-order segment
// completions. Results are accepted immediately and parked in a pending map
// keyed by ordinal; a result is released only once every lower ordinal has
// been released, which makes the released stream globally increasing and
// gap-free. A stalled worker therefore stalls release (head-of-line
// blocking).
type OrderedAssembler struct {
	pending       map[uint64][]uint64
	nextToRelease uint64
}

// NewOrderedAssembler creates an assembler expecting firstOrdinal next.
func NewOrderedAssembler(firstOrdinal uint64) *OrderedAssembler {
	return &OrderedAssembler{
		pending:       make(map[uint64][]uint64),
		nextToRelease: firstOrdinal,
	}
}

// Accept stores one completed segment and returns every segment releasable
// afterwards, in ordinal order. Most calls release nothing or one segment;
// a freshly arrived straggler can unblock several parked successors at once.
func (a *OrderedAssembler) Accept(ordinal uint64, primes []uint64) [][]uint64 {
	a.pending[ordinal] = primes

	var released [][]uint64

	for {
		next, ok := a.pending[a.nextToRelease]
		if !ok {
			break
		}

		delete(a.pending, a.nextToRelease)
		released = append(released, next)
		a.nextToRelease++
	}

	return released
}

// NextToRelease returns the ordinal the assembler is waiting for.
func (a *OrderedAssembler) NextToRelease() uint64 {
	return a.nextToRelease
}

// Pending returns the number of parked out-of-order results.
func (a *OrderedAssembler) Pending() int {
	return len(a.pending)
}
