package membership

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-kit/log/level"
)

// JoinKind selects the join protocol variant.
type JoinKind string

const (
	// JoinInit seeds a fresh ring from a full list of entries.
	JoinInit JoinKind = "init"

	// JoinAdd adds new nodes to an existing cluster, adopting the ping
	// node's state as the starting point.
	JoinAdd JoinKind = "join"

	// JoinReplace swaps an existing node's ring entry for the local node.
	JoinReplace JoinKind = "replace"

	// JoinLeave announces a node's departure.
	JoinLeave JoinKind = "leave"
)

// JoinRequest describes a join, replace, or leave operation.
type JoinRequest struct {
	Kind JoinKind

	// Entries are the ring entries to add (init and join).
	Entries []NodeEntry

	// PingNode is an existing cluster member whose state seeds the
	// operation (join and replace).
	PingNode string

	// OldNodeID is the node being replaced (replace).
	OldNodeID string

	// Options are the replacement entry's options (replace).
	Options map[string]string

	// NodeID is the departing node (leave).
	NodeID string
}

// Join runs a join, replace, or leave operation. For join and replace the
// ping node's state is fetched up front so the request loop does not wait
// on that fetch.
func (s *Service) Join(ctx context.Context, req JoinRequest) error {
	var (
		base *State
		err  error
	)

	switch req.Kind {
	case JoinInit:
		s.pingAll(req.Entries)
	case JoinAdd, JoinReplace:
		base, err = s.fetchBaseState(ctx, req.PingNode)
		if err != nil {
			return err
		}
	case JoinLeave:
	default:
		return ErrUnknownJoinType
	}

	_, err = s.call(ctx, joinMsg{req: req, base: base})

	return err
}

// pingAll forces liveness detection of every node listed in the entries.
func (s *Service) pingAll(entries []NodeEntry) {
	if s.conf.Test || s.conf.Transport == nil {
		return
	}

	for _, e := range entries {
		if e.NodeID == s.conf.NodeID {
			continue
		}

		if !s.conf.Transport.Ping(e.NodeID) {
			level.Debug(s.logger).Log("msg", "join ping failed", "node_id", e.NodeID)
		}
	}
}

func (s *Service) fetchBaseState(ctx context.Context, pingNode string) (*State, error) {
	if s.conf.Test {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.conf.CallTimeout)
	defer cancel()

	ws, err := s.conf.Transport.State(callCtx, pingNode)
	if err != nil {
		return nil, fmt.Errorf("fetch state from %s: %w", pingNode, err)
	}

	return fromWireState(ws), nil
}

func (s *Service) handleJoin(req JoinRequest, base *State) error {
	switch req.Kind {
	case JoinInit:
		return s.intJoin(req.Entries, s.state)
	case JoinAdd:
		start := s.state
		if base != nil {
			start = base
		}

		return s.intJoin(req.Entries, start)
	case JoinReplace:
		return s.handleReplace(req, base)
	case JoinLeave:
		publishEvent(s.conf.Bus, EventNodeLeave, req.NodeID)
		return nil
	default:
		return ErrUnknownJoinType
	}
}

func (s *Service) handleReplace(req JoinRequest, base *State) error {
	start := s.state
	if base != nil {
		start = base
	}

	st := start.Clone()
	ring := st.Ring.Normalize()

	replaced := false

	for i, e := range ring {
		if e.NodeID == req.OldNodeID {
			ring[i] = NodeEntry{
				Position: e.Position,
				NodeID:   s.conf.NodeID,
				Options:  req.Options,
			}
			replaced = true

			break
		}
	}

	if !replaced {
		return fmt.Errorf("node %q not found in ring", req.OldNodeID)
	}

	st.Ring = ring

	publishEvent(s.conf.Bus, EventNodeLeave, req.OldNodeID)

	return s.intJoin(nil, st)
}

// intJoin validates and appends the new entries to the ring of the given
// starting state, bumps the local clock, and installs the result. A failed
// position check aborts the whole join and leaves state untouched.
func (s *Service) intJoin(entries []NodeEntry, start *State) error {
	st := start.Clone()
	ring := st.Ring.Normalize()

	for _, e := range entries {
		if err := checkPos(ring, e); err != nil {
			return err
		}
	}

	for _, e := range entries {
		publishEvent(s.conf.Bus, EventNodeJoin, e.NodeID)
		ring = append(ring, e.Clone())
	}

	sort.Slice(ring, func(i, j int) bool {
		return ring[i].Position < ring[j].Position
	})

	st.Ring = ring
	st.Clock.IncrementFor(s.conf.NodeID)

	level.Info(s.logger).Log(
		"msg", "joined ring",
		"nodes", len(st.Ring),
		"clock", st.Clock.String(),
	)

	s.install(st, true)

	return nil
}

func checkPos(ring Ring, entry NodeEntry) error {
	for _, e := range ring {
		if e.Position != entry.Position {
			continue
		}

		if e.NodeID == entry.NodeID {
			return &NodeExistsError{Position: entry.Position}
		}

		return &PositionTakenError{Position: entry.Position}
	}

	return nil
}
