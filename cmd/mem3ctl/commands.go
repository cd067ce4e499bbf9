package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinnucsk/mem3/api/model"
)

func nodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List node IDs in ring order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/nodes")
		},
	}
}

func fullNodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fullnodes",
		Short: "List full ring entries in ring order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/fullnodes")
		},
	}
}

func clockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Print the node's vector clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/clock")
		},
	}
}

func stateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the node's full membership state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/state")
		},
	}
}

func statesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "Group all ring members by their reported state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/states")
		},
	}
}

func joinCommand() *cobra.Command {
	var (
		pingNode string
		hints    []string
	)

	cmd := &cobra.Command{
		Use:   "join <position>:<node-id> [<position>:<node-id>...]",
		Short: "Add nodes to the ring",
		Long: "Adds the listed nodes to the ring. Without --ping-node a fresh ring\n" +
			"is seeded (init); with --ping-node the state of that member is adopted\n" +
			"first (join).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseEntries(args, hints)
			if err != nil {
				return err
			}

			req := model.JoinRequest{
				Kind:     "init",
				Entries:  entries,
				PingNode: pingNode,
			}
			if pingNode != "" {
				req.Kind = "join"
			}

			return postJSON("/join", req)
		},
	}

	cmd.Flags().StringVar(&pingNode, "ping-node", "", "existing ring member to fetch state from")
	cmd.Flags().StringSliceVar(&hints, "hints", nil, "partition hints for the new nodes")

	return cmd
}

func replaceCommand() *cobra.Command {
	var (
		pingNode string
		hints    []string
	)

	cmd := &cobra.Command{
		Use:   "replace <old-node-id>",
		Short: "Replace a ring member with the target node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.JoinRequest{
				Kind:      "replace",
				OldNodeID: args[0],
				PingNode:  pingNode,
			}

			if len(hints) > 0 {
				req.Options = map[string]string{"hints": strings.Join(hints, ",")}
			}

			return postJSON("/join", req)
		},
	}

	cmd.Flags().StringVar(&pingNode, "ping-node", "", "existing ring member to fetch state from")
	cmd.Flags().StringSliceVar(&hints, "hints", nil, "partition hints for the replacement node")

	return cmd
}

func leaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <node-id>",
		Short: "Announce a node's departure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/join", model.JoinRequest{
				Kind:   "leave",
				NodeID: args[0],
			})
		},
	}
}

func gossipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gossip",
		Short: "Trigger a single gossip round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/gossip", nil)
		},
	}
}

func resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe the node's membership state (test mode only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/reset", nil)
		},
	}
}

// parseEntries turns position:node-id arguments into ring entries. Hints,
// when given, apply to every entry.
func parseEntries(args []string, hints []string) ([]model.Node, error) {
	entries := make([]model.Node, len(args))

	for i, arg := range args {
		var (
			pos    int
			nodeID string
		)

		if _, err := fmt.Sscanf(arg, "%d:%s", &pos, &nodeID); err != nil || pos < 1 || nodeID == "" {
			return nil, fmt.Errorf("invalid entry %q, expected <position>:<node-id>", arg)
		}

		entries[i] = model.Node{
			Position: pos,
			NodeID:   nodeID,
		}

		if len(hints) > 0 {
			entries[i].Options = map[string]string{"hints": strings.Join(hints, ",")}
		}
	}

	return entries, nil
}
