// Command meshpair-log views and analyzes meshpair protocol capture files.
//
// Capture files are written by meshpair and meshpair-hub when started with
// --protocol-log.
//
// Usage:
//
//	meshpair-log <command> [flags] <file.mplog>
//
// Examples:
//
//	# View only session-layer state changes
//	meshpair-log view --layer session --category state hub.mplog
//
//	# Keep the events of one inclusion attempt
//	meshpair-log filter --entry-id stick -o stick.mplog hub.mplog
//
//	# Show statistics
//	meshpair-log stats hub.mplog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshpair/meshpair-go/cmd/meshpair-log/commands"
)

func main() {
	root := &cobra.Command{
		Use:           "meshpair-log",
		Short:         "meshpair protocol log analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(viewCommand(), statsCommand(), filterCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func viewCommand() *cobra.Command {
	var layer, direction, category string

	cmd := &cobra.Command{
		Use:   "view [flags] <file.mplog>",
		Short: "View log file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter commands.ViewFilter
			if layer != "" {
				l, err := commands.ParseLayer(layer)
				if err != nil {
					return err
				}
				filter.Layer = &l
			}
			if direction != "" {
				d, err := commands.ParseDirection(direction)
				if err != nil {
					return err
				}
				filter.Direction = &d
			}
			if category != "" {
				c, err := commands.ParseCategory(category)
				if err != nil {
					return err
				}
				filter.Category = &c
			}
			return commands.RunView(args[0], filter, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "Filter by layer (transport, wire, session)")
	cmd.Flags().StringVar(&direction, "direction", "", "Filter by direction (in, out)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category (message, state, error)")
	return cmd
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.mplog>",
		Short: "Show statistics about the log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], cmd.OutOrStdout())
		},
	}
}

func filterCommand() *cobra.Command {
	var opts commands.FilterOptions

	cmd := &cobra.Command{
		Use:   "filter [flags] <file.mplog>",
		Short: "Filter log file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := commands.RunFilter(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Filtered %d events to %s\n", n, opts.Output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "Output file path (required)")
	f.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	f.StringVar(&opts.FlowID, "flow-id", "", "Filter by flow ID")
	f.StringVar(&opts.EntryID, "entry-id", "", "Filter by inclusion entry ID")
	f.StringVar(&opts.TimeStart, "time-start", "", "Start time (RFC3339)")
	f.StringVar(&opts.TimeEnd, "time-end", "", "End time (RFC3339)")
	f.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, session)")
	f.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	f.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
