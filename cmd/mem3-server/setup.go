package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/api"
	"github.com/chinnucsk/mem3/eventbus"
	"github.com/chinnucsk/mem3/membership"
	"github.com/chinnucsk/mem3/membership/store"
	"github.com/chinnucsk/mem3/transport"
	grpctransport "github.com/chinnucsk/mem3/transport/grpc"
	"github.com/chinnucsk/mem3/transport/liveness"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

// clusterTransport glues the gRPC client and the liveness monitor into the
// single capability set the membership service consumes.
type clusterTransport struct {
	*grpctransport.Client
	monitor *liveness.Monitor
}

func (t *clusterTransport) UpSet() []string {
	return t.monitor.UpSet()
}

func (t *clusterTransport) Events() <-chan transport.LivenessEvent {
	return t.monitor.Events()
}

var _ transport.Client = (*clusterTransport)(nil)

func setupLogger(args cliArgs) (kitlog.Logger, shutdownFunc) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))

	if !args.verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger, noopShutdown
}

func setupLivenessMonitor(args cliArgs, logger kitlog.Logger) (*liveness.Monitor, shutdownFunc) {
	conf := liveness.DefaultConfig()
	conf.NodeID = args.nodeID
	conf.Bind = args.gossipBindAddr
	conf.Advertise = args.gossipPublicAddr
	conf.RPCAddr = args.grpcPublicAddr
	conf.Logger = logger

	monitor := liveness.NewMonitor(conf)

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "leaving liveness gossip pool")
		return monitor.Shutdown()
	}

	return monitor, shutdown
}

func setupMembership(
	args cliArgs,
	monitor *liveness.Monitor,
	bus *eventbus.Bus,
	logger kitlog.Logger,
) (*membership.Service, shutdownFunc) {
	conf := membership.DefaultConfig()
	conf.NodeID = args.nodeID
	conf.Logger = logger
	conf.Bus = bus
	conf.Store = store.New(args.dataDirectory, logger)
	conf.Args = map[string]string{
		"grpc_addr":   args.grpcPublicAddr,
		"gossip_addr": args.gossipPublicAddr,
	}

	client := grpctransport.NewClient(monitor, conf.CallTimeout, logger)
	conf.Transport = &clusterTransport{Client: client, monitor: monitor}

	service := membership.New(conf)

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "stopping membership service")
		service.Stop()

		return client.Close()
	}

	return service, shutdown
}

func setupRPCServer(args cliArgs, service *membership.Service, logger kitlog.Logger) (*grpctransport.Server, shutdownFunc) {
	server := grpctransport.NewServer(args.grpcBindAddr, membership.NewHandler(service), logger)

	if err := server.Start(); err != nil {
		panic(fmt.Sprintf("failed to start grpc server: %v", err))
	}

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down grpc server")
		server.Stop()

		return nil
	}

	return server, shutdown
}

func setupAPIServer(args cliArgs, wg *sync.WaitGroup, service *membership.Service, logger kitlog.Logger) (*http.Server, shutdownFunc) {
	restAPI := &http.Server{
		Addr:    args.apiBindAddr,
		Handler: api.CreateRouter(service),
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := restAPI.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				panic(fmt.Sprintf("failed to start REST API server: %v", err))
			}
		}
	}()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down API server")

		if err := restAPI.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown REST API server: %w", err)
		}

		return nil
	}

	return restAPI, shutdown
}

// setupEventLogger subscribes to the membership event topic and logs every
// event, so operators can follow ring changes from the process output.
func setupEventLogger(bus *eventbus.Bus, logger kitlog.Logger) shutdownFunc {
	sub := bus.Subscribe(membership.EventsTopic, 16)

	go func() {
		for payload := range sub.C() {
			ev, ok := payload.(membership.Event)
			if !ok {
				continue
			}

			level.Info(logger).Log("msg", "membership event", "type", ev.Type, "node_id", ev.NodeID)
		}
	}()

	return func(ctx context.Context) error {
		sub.Cancel()
		return nil
	}
}

func seedAddrs(joinAddr string) []string {
	var seeds []string

	for _, addr := range strings.Split(joinAddr, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			seeds = append(seeds, addr)
		}
	}

	return seeds
}
