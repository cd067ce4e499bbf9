package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/eventbus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	appctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := parseCliArgs()

	logger, _ := setupLogger(args)

	if args.nodeID == "" {
		level.Error(logger).Log("msg", "node-id is required")
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	bus := eventbus.New(logger)

	monitor, stopMonitor := setupLivenessMonitor(args, logger)
	service, stopService := setupMembership(args, monitor, bus, logger)
	_, stopRPC := setupRPCServer(args, service, logger)

	if err := monitor.Start(); err != nil {
		level.Error(logger).Log("msg", "failed to start liveness monitor", "err", err)
		os.Exit(1)
	}

	if seeds := seedAddrs(args.joinAddr); len(seeds) > 0 {
		if err := monitor.Join(seeds); err != nil {
			level.Warn(logger).Log("msg", "failed to connect to seed nodes", "err", err)
		}
	}

	stopEventLogger := setupEventLogger(bus, logger)

	if err := service.Start(appctx); err != nil {
		level.Error(logger).Log("msg", "failed to start membership service", "err", err)
		os.Exit(1)
	}

	_, stopAPI := setupAPIServer(args, &wg, service, logger)

	level.Info(logger).Log("msg", "node started", "node_id", args.nodeID)

	<-appctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	for _, shutdown := range []shutdownFunc{stopAPI, stopService, stopRPC, stopEventLogger, stopMonitor} {
		if err := shutdown(shutdownCtx); err != nil {
			level.Warn(logger).Log("msg", "shutdown error", "err", err)
		}
	}

	bus.Close()
	wg.Wait()
}
