package membership

import (
	"github.com/chinnucsk/mem3/internal/generic"
	"github.com/chinnucsk/mem3/internal/vclock"
	"github.com/chinnucsk/mem3/transport"
)

func toWireState(s *State) *transport.State {
	ring := make([]transport.Entry, len(s.Ring))
	for i, e := range s.Ring {
		ring[i] = transport.Entry{
			Position: e.Position,
			NodeID:   e.NodeID,
			Options:  generic.MapClone(e.Options),
		}
	}

	return &transport.State{
		Clock: generic.MapClone(map[string]uint64(s.Clock)),
		Ring:  ring,
		Args:  generic.MapClone(s.Args),
	}
}

func fromWireState(ws *transport.State) *State {
	ring := make(Ring, len(ws.Ring))
	for i, e := range ws.Ring {
		ring[i] = NodeEntry{
			Position: e.Position,
			NodeID:   e.NodeID,
			Options:  generic.MapClone(e.Options),
		}
	}

	clock := vclock.New()
	generic.MapCopy(ws.Clock, clock)

	return &State{
		Clock: clock,
		Ring:  ring,
		Args:  generic.MapClone(ws.Args),
	}
}
