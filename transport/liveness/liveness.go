package liveness

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/memberlist"

	"github.com/chinnucsk/mem3/transport"
)

// Config configures the memberlist-backed liveness monitor.
type Config struct {
	// NodeID is the unique node identifier, used as the memberlist name.
	NodeID string

	// Bind is the gossip bind address in host:port form.
	Bind string

	// Advertise is the address peers use to reach this node. When empty,
	// memberlist derives it from Bind.
	Advertise string

	// RPCAddr is the local node's membership RPC address, shared with
	// peers through node metadata.
	RPCAddr string

	Logger kitlog.Logger

	// EventBuffer sizes the liveness event channel.
	EventBuffer int
}

func DefaultConfig() Config {
	return Config{
		Logger:      kitlog.NewNopLogger(),
		EventBuffer: 64,
	}
}

// nodeMeta travels in memberlist's per-node metadata so peers can find
// each other's RPC endpoints without extra configuration.
type nodeMeta struct {
	RPCAddr string `json:"rpc_addr"`
}

// Monitor watches peer liveness through a memberlist gossip pool. It also
// acts as the resolver from node IDs to RPC addresses.
type Monitor struct {
	conf   Config
	logger kitlog.Logger

	mut    sync.RWMutex
	ml     *memberlist.Memberlist
	addrs  map[string]string
	events chan transport.LivenessEvent
	closed bool
}

func NewMonitor(conf Config) *Monitor {
	logger := conf.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	buffer := conf.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}

	return &Monitor{
		conf:   conf,
		logger: logger,
		addrs:  make(map[string]string),
		events: make(chan transport.LivenessEvent, buffer),
	}
}

// Start launches the memberlist instance and begins emitting events.
func (m *Monitor) Start() error {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.ml != nil {
		return nil
	}

	cfg := memberlist.DefaultLANConfig()
	cfg.Name = m.conf.NodeID
	cfg.LogOutput = kitlog.NewStdlibAdapter(level.Debug(m.logger))

	host, port, err := splitHostPort(m.conf.Bind)
	if err != nil {
		return fmt.Errorf("bind address: %w", err)
	}

	cfg.BindAddr = host
	cfg.BindPort = port

	if m.conf.Advertise != "" {
		host, port, err := splitHostPort(m.conf.Advertise)
		if err != nil {
			return fmt.Errorf("advertise address: %w", err)
		}

		cfg.AdvertiseAddr = host
		cfg.AdvertisePort = port
	}

	meta, err := json.Marshal(nodeMeta{RPCAddr: m.conf.RPCAddr})
	if err != nil {
		return fmt.Errorf("encode node meta: %w", err)
	}

	cfg.Events = &eventDelegate{monitor: m}
	cfg.Delegate = &metaDelegate{meta: meta}

	ml, err := memberlist.Create(cfg)
	if err != nil {
		return fmt.Errorf("create memberlist: %w", err)
	}

	m.ml = ml

	return nil
}

// Join connects the local gossip pool to the given seed addresses.
func (m *Monitor) Join(seeds []string) error {
	m.mut.RLock()
	ml := m.ml
	m.mut.RUnlock()

	if ml == nil {
		return fmt.Errorf("liveness monitor not started")
	}

	if len(seeds) == 0 {
		return nil
	}

	n, err := ml.Join(seeds)
	if err != nil {
		return fmt.Errorf("join gossip pool: %w", err)
	}

	level.Info(m.logger).Log("msg", "joined gossip pool", "contacted", n)

	return nil
}

// UpSet returns the IDs of all nodes currently considered alive, including
// the local one.
func (m *Monitor) UpSet() []string {
	m.mut.RLock()
	defer m.mut.RUnlock()

	if m.ml == nil {
		return nil
	}

	members := m.ml.Members()

	ids := make([]string, 0, len(members))
	for _, n := range members {
		ids = append(ids, n.Name)
	}

	return ids
}

// Events returns the channel liveness transitions are delivered on.
func (m *Monitor) Events() <-chan transport.LivenessEvent {
	return m.events
}

// Lookup resolves a node ID to the RPC address it advertised.
func (m *Monitor) Lookup(nodeID string) (string, bool) {
	m.mut.RLock()
	defer m.mut.RUnlock()

	addr, ok := m.addrs[nodeID]

	return addr, ok
}

// Shutdown leaves the gossip pool and stops event delivery.
func (m *Monitor) Shutdown() error {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	if m.ml != nil {
		if err := m.ml.Leave(time.Second); err != nil {
			level.Warn(m.logger).Log("msg", "leaving gossip pool", "err", err)
		}

		if err := m.ml.Shutdown(); err != nil {
			return fmt.Errorf("shutdown memberlist: %w", err)
		}

		m.ml = nil
	}

	close(m.events)

	return nil
}

func (m *Monitor) notify(n *memberlist.Node, up bool) {
	m.mut.Lock()

	if m.closed {
		m.mut.Unlock()
		return
	}

	if up {
		var meta nodeMeta
		if len(n.Meta) > 0 && json.Unmarshal(n.Meta, &meta) == nil && meta.RPCAddr != "" {
			m.addrs[n.Name] = meta.RPCAddr
		}
	}

	m.mut.Unlock()

	select {
	case m.events <- transport.LivenessEvent{NodeID: n.Name, Up: up}:
	default:
		level.Warn(m.logger).Log("msg", "liveness event buffer full, dropping event", "node_id", n.Name)
	}
}

type eventDelegate struct {
	monitor *Monitor
}

func (d *eventDelegate) NotifyJoin(n *memberlist.Node) {
	d.monitor.notify(n, true)
}

func (d *eventDelegate) NotifyLeave(n *memberlist.Node) {
	d.monitor.notify(n, false)
}

func (d *eventDelegate) NotifyUpdate(n *memberlist.Node) {
	d.monitor.notify(n, true)
}

// metaDelegate broadcasts the node's static metadata. The remaining
// memberlist.Delegate hooks are unused.
type metaDelegate struct {
	meta []byte
}

func (d *metaDelegate) NodeMeta(limit int) []byte {
	if len(d.meta) > limit {
		return nil
	}

	return d.meta
}

func (d *metaDelegate) NotifyMsg([]byte)                {}
func (d *metaDelegate) GetBroadcasts(int, int) [][]byte { return nil }
func (d *metaDelegate) LocalState(bool) []byte          { return nil }
func (d *metaDelegate) MergeRemoteState([]byte, bool)   {}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}

	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}

	return host, port, nil
}
