package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareEntries(t *testing.T) {
	tests := map[string]struct {
		a        NodeEntry
		b        NodeEntry
		expected int
	}{
		"ByPosition": {
			a:        NodeEntry{Position: 1, NodeID: "b"},
			b:        NodeEntry{Position: 2, NodeID: "a"},
			expected: -1,
		},
		"ByNodeID": {
			a:        NodeEntry{Position: 1, NodeID: "a"},
			b:        NodeEntry{Position: 1, NodeID: "b"},
			expected: -1,
		},
		"ByOptions": {
			a:        NodeEntry{Position: 1, NodeID: "a"},
			b:        NodeEntry{Position: 1, NodeID: "a", Options: map[string]string{"hints": "p0"}},
			expected: -1,
		},
		"Identical": {
			a:        NodeEntry{Position: 1, NodeID: "a", Options: map[string]string{"hints": "p0"}},
			b:        NodeEntry{Position: 1, NodeID: "a", Options: map[string]string{"hints": "p0"}},
			expected: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareEntries(tt.a, tt.b))
			assert.Equal(t, -tt.expected, CompareEntries(tt.b, tt.a))
		})
	}
}

func TestRing_Normalize(t *testing.T) {
	ring := Ring{
		{Position: 2, NodeID: "b"},
		{Position: 0, NodeID: "sentinel"},
		{Position: 1, NodeID: "a"},
	}

	normalized := ring.Normalize()

	require.Len(t, normalized, 2)
	assert.Equal(t, "a", normalized[0].NodeID)
	assert.Equal(t, "b", normalized[1].NodeID)
}

func TestRing_Hints(t *testing.T) {
	entry := NodeEntry{Position: 1, NodeID: "a"}
	assert.Empty(t, entry.Hints())

	entry.SetHints([]string{"p0", "p1"})
	assert.Equal(t, []string{"p0", "p1"}, entry.Hints())
	assert.Equal(t, "p0,p1", entry.Options["hints"])

	entry.SetHints(nil)
	assert.Empty(t, entry.Hints())
}

func TestMergeRings(t *testing.T) {
	tests := map[string]struct {
		remote   Ring
		local    Ring
		expected Ring
	}{
		"EmptyRemote": {
			remote:   Ring{},
			local:    Ring{{Position: 1, NodeID: "a"}},
			expected: Ring{{Position: 1, NodeID: "a"}},
		},
		"EmptyLocal": {
			remote:   Ring{{Position: 1, NodeID: "a"}},
			local:    Ring{},
			expected: Ring{{Position: 1, NodeID: "a"}},
		},
		"SmallerWins": {
			remote:   Ring{{Position: 1, NodeID: "b"}},
			local:    Ring{{Position: 1, NodeID: "a"}},
			expected: Ring{{Position: 1, NodeID: "a"}},
		},
		"SentinelsDropped": {
			remote: Ring{{Position: 0, NodeID: "legacy"}, {Position: 1, NodeID: "a"}},
			local: Ring{
				{Position: 1, NodeID: "a"},
			},
			expected: Ring{{Position: 1, NodeID: "a"}},
		},
		"DuplicatesDropped": {
			remote: Ring{
				{Position: 1, NodeID: "a"},
				{Position: 1, NodeID: "a"},
			},
			local:    Ring{{Position: 1, NodeID: "a"}},
			expected: Ring{{Position: 1, NodeID: "a"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			merged := mergeRings(tt.remote, tt.local)
			assert.Equal(t, tt.expected, merged)

			// Both sides of a concurrent exchange converge on the same ring.
			reversed := mergeRings(tt.local, tt.remote)
			assert.Equal(t, merged, reversed)
		})
	}
}

func TestMergeRings_Idempotent(t *testing.T) {
	ring := Ring{
		{Position: 1, NodeID: "a"},
		{Position: 2, NodeID: "b"},
	}

	assert.Equal(t, ring, mergeRings(ring, ring))
}
