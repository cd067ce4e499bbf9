package membership

import (
	"time"

	kitlog "github.com/go-kit/log"

	"github.com/chinnucsk/mem3/eventbus"
	"github.com/chinnucsk/mem3/membership/store"
	"github.com/chinnucsk/mem3/transport"
)

// Config carries the dependencies and tunables of the membership service.
type Config struct {
	// NodeID is the unique identifier of the local node.
	NodeID string

	// Args are free-form arguments recorded in the local state and served
	// to peers, typically the node's startup configuration.
	Args map[string]string

	// Transport talks to peers and reports their liveness.
	Transport transport.Client

	// Store persists membership snapshots between restarts.
	Store *store.Store

	// Bus receives membership and liveness events.
	Bus *eventbus.Bus

	Logger kitlog.Logger

	// Test disables persistence, remote state fetch, and gossip, and
	// enables Reset. Used by the test harness only.
	Test bool

	// CallTimeout bounds synchronous RPC calls to peers.
	CallTimeout time.Duration

	// GossipTimeout bounds a single outbound gossip exchange.
	GossipTimeout time.Duration

	// MailboxSize is the capacity of the service's message queue.
	MailboxSize int
}

// DefaultConfig returns a config with sensible defaults. The caller still
// has to fill in NodeID, Transport, Store, and Bus.
func DefaultConfig() Config {
	return Config{
		Args:          make(map[string]string),
		Logger:        kitlog.NewNopLogger(),
		CallTimeout:   5 * time.Second,
		GossipTimeout: 2 * time.Second,
		MailboxSize:   128,
	}
}
