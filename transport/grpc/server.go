package grpc

import (
	"context"
	"net"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/chinnucsk/mem3/transport"
)

type empty struct{}

// membershipServer is the peer-facing RPC surface. Join is local-only and
// deliberately not exposed here.
type membershipServer interface {
	State(ctx context.Context, in *empty) (*transport.State, error)
	Gossip(ctx context.Context, in *transport.State) (*transport.GossipReply, error)
	GossipCast(ctx context.Context, in *transport.State) (*empty, error)
}

type membershipImpl struct {
	handler transport.Handler
}

func (m *membershipImpl) State(ctx context.Context, _ *empty) (*transport.State, error) {
	return m.handler.LocalState(ctx)
}

func (m *membershipImpl) Gossip(ctx context.Context, in *transport.State) (*transport.GossipReply, error) {
	if in == nil {
		in = &transport.State{}
	}

	return m.handler.GossipCall(ctx, in)
}

func (m *membershipImpl) GossipCast(_ context.Context, in *transport.State) (*empty, error) {
	if in != nil {
		m.handler.GossipCast(in)
	}

	return &empty{}, nil
}

// Service descriptor and method handlers, hand-written so no codegen is
// required for the JSON codec.
var membershipServiceDesc = grpc.ServiceDesc{
	ServiceName: "mem3.v1.Membership",
	HandlerType: (*membershipServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "State", Handler: membershipStateHandler},
		{MethodName: "Gossip", Handler: membershipGossipHandler},
		{MethodName: "GossipCast", Handler: membershipGossipCastHandler},
	},
}

func membershipStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(membershipServer).State(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mem3.v1.Membership/State"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(membershipServer).State(ctx, req.(*empty))
	}

	return interceptor(ctx, in, info, handler)
}

func membershipGossipHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(transport.State)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(membershipServer).Gossip(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mem3.v1.Membership/Gossip"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(membershipServer).Gossip(ctx, req.(*transport.State))
	}

	return interceptor(ctx, in, info, handler)
}

func membershipGossipCastHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(transport.State)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(membershipServer).GossipCast(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mem3.v1.Membership/GossipCast"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(membershipServer).GossipCast(ctx, req.(*transport.State))
	}

	return interceptor(ctx, in, info, handler)
}

// Server exposes the membership RPC surface over gRPC with the JSON codec.
type Server struct {
	bind    string
	logger  kitlog.Logger
	handler transport.Handler
	srv     *grpc.Server
}

func NewServer(bind string, handler transport.Handler, logger kitlog.Logger) *Server {
	return &Server{
		bind:    bind,
		logger:  logger,
		handler: handler,
	}
}

// Start listens on the bind address and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.bind)
	if err != nil {
		return err
	}

	s.srv = grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)

	healthpb.RegisterHealthServer(s.srv, health.NewServer())
	s.srv.RegisterService(&membershipServiceDesc, &membershipImpl{handler: s.handler})

	go func() {
		if err := s.srv.Serve(lis); err != nil {
			level.Error(s.logger).Log("msg", "grpc server stopped", "err", err)
		}
	}()

	level.Info(s.logger).Log("msg", "grpc server started", "addr", s.bind)

	return nil
}

// Stop drains in-flight RPCs and shuts the server down, falling back to a
// hard stop after a short grace period.
func (s *Server) Stop() {
	if s.srv == nil {
		return
	}

	done := make(chan struct{})

	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.srv.Stop()
	}
}
