package membership

import (
	"context"
	"strings"
	"sync"

	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/internal/generic"
	"github.com/chinnucsk/mem3/internal/vclock"
)

// rejoin checks a restored state against the rest of the cluster. Every
// reachable ring member must report a clock equal to ours; on any mismatch
// the restored state is discarded and an operator is expected to run join
// again. Unreachable peers do not count against the match.
func (s *Service) rejoin(ctx context.Context, restored *State) *State {
	peers := generic.Filter(restored.Ring.Normalize().NodeIDs(), func(id string) bool {
		return id != s.conf.NodeID
	})

	if len(peers) == 0 {
		return restored
	}

	var (
		mut         sync.Mutex
		wg          sync.WaitGroup
		mismatched  []string
		unreachable []string
	)

	for _, id := range peers {
		wg.Add(1)

		go func(id string) {
			defer wg.Done()

			s.conf.Transport.Ping(id)

			callCtx, cancel := context.WithTimeout(ctx, s.conf.CallTimeout)
			defer cancel()

			ws, err := s.conf.Transport.State(callCtx, id)

			mut.Lock()
			defer mut.Unlock()

			if err != nil {
				unreachable = append(unreachable, id)
				return
			}

			if !vclock.IsEqual(restored.Clock, fromWireState(ws).Clock) {
				mismatched = append(mismatched, id)
			}
		}(id)
	}

	wg.Wait()

	if len(mismatched) > 0 {
		generic.SortSlice(mismatched, false)

		level.Error(s.logger).Log(
			"msg", "bad state match, discarding restored state",
			"node_id", s.conf.NodeID,
			"mismatched", strings.Join(mismatched, ","),
		)

		return NewState()
	}

	level.Info(s.logger).Log(
		"msg", "rejoined with restored state",
		"peers", len(peers),
		"unreachable", len(unreachable),
	)

	return restored
}
