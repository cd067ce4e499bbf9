package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/chinnucsk/mem3/transport"
)

// Client calls the membership RPC surface of remote nodes. Node IDs are
// translated to addresses through the resolver, and connections are cached
// per address.
type Client struct {
	resolver transport.Resolver
	logger   kitlog.Logger
	timeout  time.Duration

	mut   sync.Mutex
	conns map[string]*grpc.ClientConn
}

func NewClient(resolver transport.Resolver, timeout time.Duration, logger kitlog.Logger) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Client{
		resolver: resolver,
		logger:   logger,
		timeout:  timeout,
		conns:    make(map[string]*grpc.ClientConn),
	}
}

func (c *Client) conn(nodeID string) (*grpc.ClientConn, error) {
	addr, ok := c.resolver.Lookup(nodeID)
	if !ok {
		return nil, fmt.Errorf("no known address for node %s", nodeID)
	}

	c.mut.Lock()
	defer c.mut.Unlock()

	if cc, ok := c.conns[addr]; ok {
		return cc, nil
	}

	cc, err := grpc.Dial(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: 500 * time.Millisecond,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c.conns[addr] = cc

	return cc, nil
}

// State fetches the remote node's membership state.
func (c *Client) State(ctx context.Context, nodeID string) (*transport.State, error) {
	cc, err := c.conn(nodeID)
	if err != nil {
		return nil, err
	}

	out := new(transport.State)
	if err := cc.Invoke(ctx, "/mem3.v1.Membership/State", &empty{}, out); err != nil {
		return nil, err
	}

	return out, nil
}

// Gossip performs a synchronous state exchange with the remote node.
func (c *Client) Gossip(ctx context.Context, nodeID string, state *transport.State) (*transport.GossipReply, error) {
	cc, err := c.conn(nodeID)
	if err != nil {
		return nil, err
	}

	out := new(transport.GossipReply)
	if err := cc.Invoke(ctx, "/mem3.v1.Membership/Gossip", state, out); err != nil {
		return nil, err
	}

	return out, nil
}

// GossipCast pushes state to the remote node without waiting for the
// outcome. Failures of the call itself are logged, not returned; a node
// that cannot be resolved or dialed is reported as an error.
func (c *Client) GossipCast(nodeID string, state *transport.State) error {
	cc, err := c.conn(nodeID)
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := cc.Invoke(ctx, "/mem3.v1.Membership/GossipCast", state, &empty{}); err != nil {
			level.Debug(c.logger).Log("msg", "gossip cast dropped", "node_id", nodeID, "err", err)
		}
	}()

	return nil
}

// Ping checks the node's gRPC health endpoint.
func (c *Client) Ping(nodeID string) bool {
	cc, err := c.conn(nodeID)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{})

	return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
}

// Close tears down all cached connections.
func (c *Client) Close() error {
	c.mut.Lock()
	defer c.mut.Unlock()

	for addr, cc := range c.conns {
		if err := cc.Close(); err != nil {
			level.Warn(c.logger).Log("msg", "closing grpc connection", "addr", addr, "err", err)
		}

		delete(c.conns, addr)
	}

	return nil
}
