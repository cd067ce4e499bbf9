package vclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector_String(t *testing.T) {
	tests := map[string]struct {
		vector     Vector
		wantString string
	}{
		"EmptyVector": {
			vector:     Vector{},
			wantString: "{}",
		},
		"SingleValue": {
			vector:     Vector{"n1": 10},
			wantString: "{n1=10}",
		},
		"MultipleValues": {
			vector:     Vector{"n1": 10, "n3": 20, "n2": 5},
			wantString: "{n1=10, n2=5, n3=20}",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := tt.vector.String()
			assert.Equal(t, tt.wantString, s)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := map[string]struct {
		a        Vector
		b        Vector
		expected Causality
	}{
		"Before": {
			a:        Vector{"a": 1, "b": 1, "c": 1},
			b:        Vector{"a": 2, "b": 1, "c": 1},
			expected: Before,
		},
		"After": {
			a:        Vector{"a": 3, "b": 2, "c": 1},
			b:        Vector{"a": 2, "b": 1, "c": 1},
			expected: After,
		},
		"Equal": {
			a:        Vector{"a": 1, "b": 1},
			b:        Vector{"a": 1, "b": 1, "c": 0},
			expected: Equal,
		},
		"Concurrent": {
			a:        Vector{"a": 1, "b": 0},
			b:        Vector{"a": 0, "b": 1},
			expected: Concurrent,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			result := Compare(tt.a, tt.b)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCompareMatchesIsEqual(t *testing.T) {
	tests := map[string]struct {
		a Vector
		b Vector
	}{
		"Equal":      {a: Vector{"a": 1}, b: Vector{"a": 1}},
		"ZeroFilled": {a: Vector{"a": 1, "b": 0}, b: Vector{"a": 1}},
		"Different":  {a: Vector{"a": 1}, b: Vector{"a": 2}},
		"Concurrent": {a: Vector{"a": 1}, b: Vector{"b": 1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, Compare(tt.a, tt.b) == Equal, IsEqual(tt.a, tt.b))
		})
	}
}

func TestIncrementFor(t *testing.T) {
	vector := New()

	vector.IncrementFor("n1")
	vector.IncrementFor("n1")
	vector.IncrementFor("n2")

	assert.Equal(t, Vector{"n1": 2, "n2": 1}, vector)
}

func TestClone(t *testing.T) {
	vector := Vector{"n1": 1}
	clone := vector.Clone()

	clone.IncrementFor("n1")

	assert.Equal(t, uint64(1), vector["n1"])
	assert.Equal(t, uint64(2), clone["n1"])
}

func TestMerge(t *testing.T) {
	result := Merge(
		Vector{"n1": 10, "n2": 5},
		Vector{"n1": 5, "n2": 10, "n3": 100},
	)

	expected := Vector{
		"n1": 10, "n2": 10, "n3": 100,
	}

	assert.Equal(t, expected, result)
}
