package membership

import (
	"context"
	"sync"

	"github.com/chinnucsk/mem3/internal/generic"
	"github.com/chinnucsk/mem3/internal/multierror"
)

// StateGroup is a set of ring members that reported identical states.
type StateGroup struct {
	Nodes []string
	State *State
}

// ClusterStates is the result of querying every ring member's state.
type ClusterStates struct {
	// Groups holds ring members bucketed by state equality.
	Groups []StateGroup

	// BadNodes are ring members that failed to respond in time.
	BadNodes []string

	// NonMemberNodes are live peers that are not part of the ring.
	NonMemberNodes []string
}

// States fetches the membership state of every ring member and groups the
// members by state equality. Unreachable peers never fail the call, they
// are reported under BadNodes.
func (s *Service) States(ctx context.Context) (*ClusterStates, error) {
	local, err := s.State(ctx)
	if err != nil {
		return nil, err
	}

	ids := local.Ring.Normalize().NodeIDs()

	states := map[string]*State{
		s.conf.NodeID: local,
	}

	failures := multierror.New[string]()

	var (
		mut sync.Mutex
		wg  sync.WaitGroup
	)

	for _, id := range ids {
		if id == s.conf.NodeID {
			continue
		}

		wg.Add(1)

		go func(id string) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.conf.CallTimeout)
			defer cancel()

			ws, err := s.conf.Transport.State(callCtx, id)
			if err != nil {
				failures.Add(id, err)
				return
			}

			mut.Lock()
			states[id] = fromWireState(ws)
			mut.Unlock()
		}(id)
	}

	wg.Wait()

	result := &ClusterStates{
		Groups:         groupStates(ids, states),
		BadNodes:       failures.Keys(),
		NonMemberNodes: s.nonMemberNodes(local.Ring),
	}

	generic.SortSlice(result.BadNodes, false)

	return result, nil
}

// groupStates buckets nodes by the fingerprint of their reported state,
// preserving ring order within and across groups.
func groupStates(ids []string, states map[string]*State) []StateGroup {
	var groups []StateGroup

	index := make(map[uint64]int)

	for _, id := range ids {
		st, ok := states[id]
		if !ok {
			continue
		}

		fp := st.Fingerprint()

		if i, ok := index[fp]; ok {
			groups[i].Nodes = append(groups[i].Nodes, id)
			continue
		}

		index[fp] = len(groups)
		groups = append(groups, StateGroup{
			Nodes: []string{id},
			State: st,
		})
	}

	return groups
}

func (s *Service) nonMemberNodes(ring Ring) []string {
	if s.conf.Transport == nil {
		return nil
	}

	nodes := generic.Filter(s.conf.Transport.UpSet(), func(id string) bool {
		return !ring.Contains(id)
	})

	generic.SortSlice(nodes, false)

	return nodes
}
