package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chinnucsk/mem3/internal/vclock"
	"github.com/chinnucsk/mem3/transport"
)

func TestRejoin(t *testing.T) {
	restored := &State{
		Clock: vclock.Vector{"a": 1, "b": 1},
		Ring: Ring{
			{Position: 1, NodeID: "a"},
			{Position: 2, NodeID: "b"},
			{Position: 3, NodeID: "c"},
		},
	}

	tests := map[string]struct {
		stateFunc func(nodeID string) (*transport.State, error)
		wantKept  bool
	}{
		"AllClocksMatch": {
			stateFunc: func(string) (*transport.State, error) {
				return toWireState(restored), nil
			},
			wantKept: true,
		},
		"UnreachablePeersIgnored": {
			stateFunc: func(nodeID string) (*transport.State, error) {
				if nodeID == "c" {
					return nil, errors.New("connection refused")
				}

				return toWireState(restored), nil
			},
			wantKept: true,
		},
		"MismatchDiscards": {
			stateFunc: func(nodeID string) (*transport.State, error) {
				if nodeID == "c" {
					diverged := restored.Clone()
					diverged.Clock.IncrementFor("c")

					return toWireState(diverged), nil
				}

				return toWireState(restored), nil
			},
			wantKept: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			trans := newMockTransport()
			trans.stateFunc = tt.stateFunc

			service := newLoopService("a", trans)
			result := service.rejoin(context.Background(), restored.Clone())

			if tt.wantKept {
				assert.Equal(t, restored.Clock, result.Clock)
				assert.Equal(t, restored.Ring, result.Ring)
			} else {
				assert.Empty(t, result.Clock)
				assert.Empty(t, result.Ring)
			}
		})
	}
}

func TestRejoin_NoPeers(t *testing.T) {
	restored := &State{
		Clock: vclock.Vector{"a": 1},
		Ring:  Ring{{Position: 1, NodeID: "a"}},
	}

	service := newLoopService("a", newMockTransport())
	result := service.rejoin(context.Background(), restored)

	assert.Equal(t, restored, result)
}
