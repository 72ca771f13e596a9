package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	hashring "github.com/Sarankumar18/study-hub-sub003"
)

func newLookupCmd() *cobra.Command {
	var (
		nodes    []string
		down     []string
		vnodes   int
		replicas int
	)
	cmd := &cobra.Command{
		Use:   "lookup KEY...",
		Short: "Print owner and replicas of the given keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRing(nodes, vnodes)
			if err != nil {
				return err
			}
			var health hashring.HealthTable
			for _, id := range down {
				health.Set(id, hashring.Down)
			}
			s := r.Snapshot()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 2, 2, ' ', 0)
			fmt.Fprintf(tw, "KEY\tOWNER\tREPLICAS\n")
			for _, k := range args {
				owner, err := s.Owner([]byte(k))
				if err != nil {
					return err
				}
				rs, err := s.Replicas([]byte(k), replicas, hashring.HealthyOnly(&health))
				if err != nil {
					logger.Warn("not enough replicas",
						"key", k,
						"err", err,
					)
				}
				ids := make([]string, len(rs))
				for i, n := range rs {
					ids[i] = n.ID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k, owner.ID, strings.Join(ids, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "comma-separated list of nodes in form id[=weight]")
	cmd.Flags().StringSliceVar(&down, "down", nil, "comma-separated list of nodes to treat as down")
	cmd.Flags().IntVar(&vnodes, "vnodes", hashring.DefaultVirtualNodes, "number of virtual nodes per unit of weight")
	cmd.Flags().IntVar(&replicas, "replicas", 3, "number of replicas to print")
	_ = cmd.MarkFlagRequired("nodes")
	return cmd
}
