package membership

import (
	"context"
	"sync"

	"github.com/chinnucsk/mem3/transport"
)

// mockTransport is a scriptable transport.Client for tests.
type mockTransport struct {
	mut sync.Mutex

	stateFunc  func(nodeID string) (*transport.State, error)
	gossipFunc func(nodeID string, state *transport.State) (*transport.GossipReply, error)

	upSet  []string
	events chan transport.LivenessEvent

	pinged      []string
	gossipCalls []string
	gossipCasts []string
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		events: make(chan transport.LivenessEvent, 16),
	}
}

func (m *mockTransport) State(_ context.Context, nodeID string) (*transport.State, error) {
	if m.stateFunc == nil {
		return &transport.State{}, nil
	}

	return m.stateFunc(nodeID)
}

func (m *mockTransport) Gossip(_ context.Context, nodeID string, state *transport.State) (*transport.GossipReply, error) {
	m.mut.Lock()
	m.gossipCalls = append(m.gossipCalls, nodeID)
	m.mut.Unlock()

	if m.gossipFunc == nil {
		return &transport.GossipReply{Status: transport.StatusOK}, nil
	}

	return m.gossipFunc(nodeID, state)
}

func (m *mockTransport) GossipCast(nodeID string, _ *transport.State) error {
	m.mut.Lock()
	m.gossipCasts = append(m.gossipCasts, nodeID)
	m.mut.Unlock()

	return nil
}

func (m *mockTransport) Ping(nodeID string) bool {
	m.mut.Lock()
	m.pinged = append(m.pinged, nodeID)
	m.mut.Unlock()

	return true
}

func (m *mockTransport) UpSet() []string {
	return m.upSet
}

func (m *mockTransport) Events() <-chan transport.LivenessEvent {
	return m.events
}
