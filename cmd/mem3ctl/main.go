package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiAddr string

func main() {
	root := &cobra.Command{
		Use:           "mem3ctl",
		Short:         "Administer the membership ring of a running node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&apiAddr, "addr", "http://127.0.0.1:8000", "rest api address of the target node")

	root.AddCommand(
		nodesCommand(),
		fullNodesCommand(),
		clockCommand(),
		stateCommand(),
		statesCommand(),
		joinCommand(),
		replaceCommand(),
		leaveCommand(),
		gossipCommand(),
		resetCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
