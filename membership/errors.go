package membership

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJoinType is returned when a join request names a join kind
	// the service does not understand.
	ErrUnknownJoinType = errors.New("unknown_join_type")

	// ErrNotReset is returned by Reset when the service is not in test mode.
	ErrNotReset = errors.New("not_reset")

	// ErrNoGossipTargets names the outcome of a gossip round that finds no
	// live peer to talk to. Gossip rounds do not return it: they log the
	// condition and skip the round.
	ErrNoGossipTargets = errors.New("no_gossip_targets_available")

	// ErrStopped is returned when the service has been shut down.
	ErrStopped = errors.New("membership service stopped")
)

// NodeExistsError reports that the joining node already occupies a position
// in the ring.
type NodeExistsError struct {
	Position int
}

func (e *NodeExistsError) Error() string {
	return fmt.Sprintf("node_exists_at_position_%d", e.Position)
}

// PositionTakenError reports that the requested position is held by a
// different node.
type PositionTakenError struct {
	Position int
}

func (e *PositionTakenError) Error() string {
	return fmt.Sprintf("position_exists_%d", e.Position)
}
