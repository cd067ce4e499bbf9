package main

import "flag"

type cliArgs struct {
	nodeID           string
	grpcBindAddr     string
	grpcPublicAddr   string
	gossipBindAddr   string
	gossipPublicAddr string
	apiBindAddr      string
	joinAddr         string
	dataDirectory    string
	verbose          bool
}

func parseCliArgs() cliArgs {
	args := cliArgs{}

	flag.StringVar(&args.nodeID, "node-id", "", "unique node id")

	flag.StringVar(&args.grpcBindAddr, "grpc-bind-addr", ":5000", "address to bind grpc server")
	flag.StringVar(&args.grpcPublicAddr, "grpc-public-addr", "", "grpc address to advertise to other nodes")

	flag.StringVar(&args.gossipBindAddr, "gossip-bind-addr", ":7946", "address to bind liveness gossip listener")
	flag.StringVar(&args.gossipPublicAddr, "gossip-public-addr", "", "gossip address to advertise to other nodes")

	flag.StringVar(&args.apiBindAddr, "api-bind-addr", ":8000", "address to bind rest api server")

	flag.StringVar(&args.joinAddr, "join-addr", "", "comma-separated gossip addresses of nodes to connect to")

	flag.StringVar(&args.dataDirectory, "data-dir", "", "directory for membership snapshots")

	flag.BoolVar(&args.verbose, "verbose", false, "verbose mode")

	flag.Parse()

	return args
}
