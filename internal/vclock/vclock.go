package vclock

import (
	"fmt"
	"strings"

	"github.com/chinnucsk/mem3/internal/generic"
)

// Causality is the result of comparing two vector clocks.
type Causality int

const (
	Before Causality = iota + 1
	Concurrent
	After
	Equal
)

func (c Causality) String() string {
	switch c {
	case Before:
		return "before"
	case Concurrent:
		return "concurrent"
	case After:
		return "after"
	case Equal:
		return "equal"
	default:
		return ""
	}
}

// Vector is a per-node map of monotonically increasing counters.
type Vector map[string]uint64

func New() Vector {
	return make(Vector)
}

// IncrementFor bumps the counter of the given node.
func (vc Vector) IncrementFor(id string) {
	vc[id]++
}

func (vc Vector) Clone() Vector {
	newvec := make(Vector, len(vc))
	generic.MapCopy(vc, newvec)

	return newvec
}

// String returns a stable textual representation with the keys sorted,
// so equal vectors always render the same.
func (vc Vector) String() string {
	keys := generic.MapKeys(vc)
	generic.SortSlice(keys, false)

	b := strings.Builder{}
	b.WriteString("{")

	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(vc[key]))
	}

	b.WriteString("}")

	return b.String()
}

// Compare determines the causal relation between two vectors. Counters
// missing on either side are treated as zero.
func Compare(a, b Vector) Causality {
	var greater, less bool

	for _, key := range generic.MapKeys(a, b) {
		if a[key] > b[key] {
			greater = true
		} else if a[key] < b[key] {
			less = true
		}
	}

	switch {
	case greater && !less:
		return After
	case less && !greater:
		return Before
	case !less && !greater:
		return Equal
	default:
		return Concurrent
	}
}

// IsEqual reports whether two vectors are causally identical.
func IsEqual(a, b Vector) bool {
	return Compare(a, b) == Equal
}

// Merge returns the pointwise maximum of two vectors.
func Merge(a, b Vector) Vector {
	keys := generic.MapKeys(a, b)

	clock := make(Vector, len(keys))
	for _, key := range keys {
		clock[key] = generic.Max(a[key], b[key])
	}

	return clock
}
