package membership

import (
	"fmt"

	"github.com/twmb/murmur3"

	"github.com/chinnucsk/mem3/internal/generic"
	"github.com/chinnucsk/mem3/internal/vclock"
)

// State is the replicated membership state: a vector clock, the ring, and
// the free-form arguments the node was started with.
type State struct {
	Clock vclock.Vector
	Ring  Ring
	Args  map[string]string
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Clock: vclock.New(),
		Ring:  Ring{},
		Args:  make(map[string]string),
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Clock: s.Clock.Clone(),
		Ring:  s.Ring.Clone(),
	}

	c.Args = generic.MapClone(s.Args)

	return c
}

// Equal reports whether two states carry the same clock and ring.
func (s *State) Equal(other *State) bool {
	return vclock.IsEqual(s.Clock, other.Clock) &&
		equalRings(s.Ring.Normalize(), other.Ring.Normalize())
}

// Fingerprint hashes the clock and normalized ring into a value usable for
// grouping identical states across nodes.
func (s *State) Fingerprint() uint64 {
	h := murmur3.New64()

	fmt.Fprintf(h, "clock:%s\n", s.Clock.String())

	for _, e := range s.Ring.Normalize() {
		fmt.Fprintf(h, "%d|%s|%s\n", e.Position, e.NodeID, canonicalOptions(e.Options))
	}

	return h.Sum64()
}

// mergeStates resolves two concurrent states into one. Clocks are merged
// pointwise; the ring is picked by mergeRings, so both sides of a
// concurrent exchange converge on the same winner.
func mergeStates(remote, local *State) *State {
	ring := mergeRings(remote.Ring, local.Ring)

	merged := local.Clone()
	merged.Clock = vclock.Merge(remote.Clock, local.Clock)
	merged.Ring = ring

	if len(merged.Args) == 0 && len(remote.Args) > 0 {
		merged.Args = generic.MapClone(remote.Args)
	}

	return merged
}
