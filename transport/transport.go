package transport

import (
	"context"
)

// Entry is the wire form of a single ring position.
type Entry struct {
	Position int               `json:"position"`
	NodeID   string            `json:"node_id"`
	Options  map[string]string `json:"options,omitempty"`
}

// State is the wire form of a node's full membership state.
type State struct {
	Clock map[string]uint64 `json:"clock"`
	Ring  []Entry           `json:"ring"`
	Args  map[string]string `json:"args,omitempty"`
}

// Gossip reply statuses.
const (
	StatusOK       = "ok"
	StatusNewState = "new_state"
)

// GossipReply is the answer to a synchronous gossip exchange. When Status is
// StatusNewState the responder's state is attached for the caller to adopt.
type GossipReply struct {
	Status string `json:"status"`
	State  *State `json:"state,omitempty"`
}

// LivenessEvent signals a change in a peer's reachability.
type LivenessEvent struct {
	NodeID string
	Up     bool
}

// Client is everything the membership service needs from the outside world:
// RPC calls to peers and liveness information about them.
type Client interface {
	// State fetches the remote node's current membership state.
	State(ctx context.Context, nodeID string) (*State, error)

	// Gossip performs a synchronous state exchange with the remote node.
	Gossip(ctx context.Context, nodeID string, state *State) (*GossipReply, error)

	// GossipCast pushes state to the remote node without waiting for a reply.
	GossipCast(nodeID string, state *State) error

	// Ping reports whether the node is currently reachable.
	Ping(nodeID string) bool

	// UpSet returns the IDs of all nodes currently considered alive,
	// including the local node.
	UpSet() []string

	// Events returns the channel liveness events are delivered on.
	Events() <-chan LivenessEvent
}

// Handler is the server side of the membership RPC surface.
type Handler interface {
	LocalState(ctx context.Context) (*State, error)
	GossipCall(ctx context.Context, remote *State) (*GossipReply, error)
	GossipCast(remote *State)
}

// Resolver maps node IDs to RPC addresses.
type Resolver interface {
	Lookup(nodeID string) (addr string, ok bool)
}
