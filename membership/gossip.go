package membership

import (
	"context"

	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/internal/telemetry"
	"github.com/chinnucsk/mem3/internal/vclock"
	"github.com/chinnucsk/mem3/transport"
)

// nextUpNode walks the ring's node IDs as a circular sequence starting
// right after the local node and returns the first one present in the
// up-set.
func (s *Service) nextUpNode() (string, bool) {
	ids := s.state.Ring.Normalize().NodeIDs()
	if len(ids) == 0 {
		return "", false
	}

	up := make(map[string]struct{})
	for _, id := range s.conf.Transport.UpSet() {
		up[id] = struct{}{}
	}

	offset := 0

	for i, id := range ids {
		if id == s.conf.NodeID {
			offset = i + 1
			break
		}
	}

	for i := 0; i < len(ids); i++ {
		id := ids[(offset+i)%len(ids)]
		if id == s.conf.NodeID {
			continue
		}

		if _, ok := up[id]; ok {
			return id, true
		}
	}

	return "", false
}

// gossipRound ships the current state to the next live ring member. In
// sync mode it waits for the peer's reply and adopts a newer state if one
// comes back.
func (s *Service) gossipRound(sync bool) {
	if s.conf.Test || s.conf.Transport == nil || len(s.state.Ring) == 0 {
		return
	}

	target, ok := s.nextUpNode()
	if !ok {
		level.Debug(s.logger).Log("msg", "no gossip targets available")
		return
	}

	telemetry.GossipRounds.Inc()

	if !sync {
		if err := s.conf.Transport.GossipCast(target, toWireState(s.state)); err != nil {
			level.Warn(s.logger).Log("msg", "gossip cast failed", "node_id", target, "err", err)
		}

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.GossipTimeout)
	defer cancel()

	reply, err := s.conf.Transport.Gossip(ctx, target, toWireState(s.state))
	if err != nil {
		level.Warn(s.logger).Log("msg", "gossip call failed", "node_id", target, "err", err)
		return
	}

	switch reply.Status {
	case transport.StatusOK:
	case transport.StatusNewState:
		if reply.State == nil {
			level.Error(s.logger).Log("msg", "unknown gossip response", "node_id", target, "status", reply.Status)
			return
		}

		level.Debug(s.logger).Log("msg", "adopting newer state from gossip reply", "node_id", target)
		s.install(fromWireState(reply.State), true)
	default:
		level.Error(s.logger).Log("msg", "unknown gossip response", "node_id", target, "status", reply.Status)
	}
}

// handleGossipCall classifies a synchronous gossip exchange from a peer.
// It returns the reply for the sender and, when the remote state wins or
// merges, the state to adopt after the reply has gone out.
func (s *Service) handleGossipCall(remote *State) (*transport.GossipReply, *State) {
	switch vclock.Compare(remote.Clock, s.state.Clock) {
	case vclock.Equal:
		telemetry.GossipInbound.WithLabelValues("equal").Inc()

		return &transport.GossipReply{Status: transport.StatusOK}, nil
	case vclock.Before:
		telemetry.GossipInbound.WithLabelValues("behind").Inc()

		return &transport.GossipReply{
			Status: transport.StatusNewState,
			State:  toWireState(s.state),
		}, nil
	case vclock.After:
		telemetry.GossipInbound.WithLabelValues("ahead").Inc()

		return &transport.GossipReply{Status: transport.StatusOK}, remote.Clone()
	default:
		telemetry.GossipInbound.WithLabelValues("concurrent").Inc()
		merged := mergeStates(remote, s.state)

		reply := &transport.GossipReply{
			Status: transport.StatusNewState,
			State:  toWireState(merged),
		}

		return reply, merged
	}
}

// handleGossipCast processes a fire-and-forget gossip push. There is no one
// to reply to, so newer or concurrent remote state is adopted silently.
func (s *Service) handleGossipCast(remote *State) {
	switch vclock.Compare(remote.Clock, s.state.Clock) {
	case vclock.Equal:
		telemetry.GossipInbound.WithLabelValues("equal").Inc()
	case vclock.Before:
		telemetry.GossipInbound.WithLabelValues("behind").Inc()
	case vclock.After:
		telemetry.GossipInbound.WithLabelValues("ahead").Inc()
		s.install(remote.Clone(), true)
	default:
		telemetry.GossipInbound.WithLabelValues("concurrent").Inc()
		s.install(mergeStates(remote, s.state), true)
	}
}
