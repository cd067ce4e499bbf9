package membership

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chinnucsk/mem3/internal/generic"
)

const hintsOption = "hints"

// NodeEntry is a single position in the membership ring.
type NodeEntry struct {
	Position int
	NodeID   string
	Options  map[string]string
}

// Hints returns the partition hints recorded for the node, if any.
func (e *NodeEntry) Hints() []string {
	v, ok := e.Options[hintsOption]
	if !ok || v == "" {
		return nil
	}

	return strings.Split(v, ",")
}

// SetHints records partition hints on the entry's options.
func (e *NodeEntry) SetHints(hints []string) {
	if e.Options == nil {
		e.Options = make(map[string]string)
	}

	if len(hints) == 0 {
		delete(e.Options, hintsOption)
		return
	}

	e.Options[hintsOption] = strings.Join(hints, ",")
}

// Clone returns a deep copy of the entry.
func (e NodeEntry) Clone() NodeEntry {
	c := e
	c.Options = generic.MapClone(e.Options)

	return c
}

// canonicalOptions renders the options map in a stable form so that entries
// can be ordered and compared deterministically.
func canonicalOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}

	keys := generic.MapKeys(opts)
	generic.SortSlice(keys, false)

	var sb strings.Builder

	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}

		fmt.Fprintf(&sb, "%s=%s", k, opts[k])
	}

	return sb.String()
}

// CompareEntries orders two entries by position, then node ID, then the
// canonical rendering of their options. Entries whose options render to the
// same string compare equal.
func CompareEntries(a, b NodeEntry) int {
	if a.Position != b.Position {
		if a.Position < b.Position {
			return -1
		}

		return 1
	}

	if a.NodeID != b.NodeID {
		if a.NodeID < b.NodeID {
			return -1
		}

		return 1
	}

	ao, bo := canonicalOptions(a.Options), canonicalOptions(b.Options)

	switch {
	case ao < bo:
		return -1
	case ao > bo:
		return 1
	default:
		return 0
	}
}

// Ring is the ordered list of node entries. A normalized ring is sorted and
// contains no position-zero sentinels.
type Ring []NodeEntry

// Normalize sorts the ring and drops sentinel entries at position zero.
func (r Ring) Normalize() Ring {
	out := generic.Filter(r, func(e NodeEntry) bool {
		return e.Position != 0
	})

	sort.Slice(out, func(i, j int) bool {
		return CompareEntries(out[i], out[j]) < 0
	})

	return out
}

// Clone returns a deep copy of the ring.
func (r Ring) Clone() Ring {
	out := make(Ring, len(r))
	for i, e := range r {
		out[i] = e.Clone()
	}

	return out
}

// NodeIDs returns the node IDs in ring order.
func (r Ring) NodeIDs() []string {
	ids := make([]string, len(r))
	for i, e := range r {
		ids[i] = e.NodeID
	}

	return ids
}

// Contains reports whether the ring has an entry for the node.
func (r Ring) Contains(nodeID string) bool {
	for _, e := range r {
		if e.NodeID == nodeID {
			return true
		}
	}

	return false
}

// compareRings orders two normalized rings entry by entry, shorter first on a
// shared prefix.
func compareRings(a, b Ring) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		if c := CompareEntries(a[i], b[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// equalRings reports whether two normalized rings are identical.
func equalRings(a, b Ring) bool {
	return compareRings(a, b) == 0
}

// dedup removes duplicate entries from a sorted ring.
func (r Ring) dedup() Ring {
	if len(r) < 2 {
		return r
	}

	out := r[:1]

	for _, e := range r[1:] {
		if CompareEntries(out[len(out)-1], e) != 0 {
			out = append(out, e)
		}
	}

	return out
}

// mergeRings resolves two rings from concurrent states. Both sides are
// normalized and deduplicated; an empty side yields to the other, and
// otherwise the lexicographically smaller ring wins. The comparison is
// total, so both ends of an exchange pick the same ring.
func mergeRings(remote, local Ring) Ring {
	a := remote.Normalize().dedup()
	b := local.Normalize().dedup()

	switch {
	case len(a) == 0:
		return b
	case len(b) == 0:
		return a
	case compareRings(a, b) <= 0:
		return a
	default:
		return b
	}
}
