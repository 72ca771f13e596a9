package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	hashring "github.com/Sarankumar18/study-hub-sub003"
)

func newExportCmd() *cobra.Command {
	var (
		nodes  []string
		remove []string
		vnodes int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print virtual nodes of the ring as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRing(nodes, vnodes)
			if err != nil {
				return err
			}
			for _, id := range remove {
				moves, err := r.RemoveNode(id)
				if err != nil {
					return err
				}
				logger.Info("node removed",
					"node", id,
					"moves", len(moves),
				)
			}
			s := r.Snapshot()
			// Check that the exported entries rebuild the same ring.
			if _, err := hashring.Import(s.Export(), nil); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s.Export())
		},
	}
	cmd.Flags().StringSliceVar(&nodes, "nodes", nil, "comma-separated list of nodes in form id[=weight]")
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "comma-separated list of nodes to remove after build")
	cmd.Flags().IntVar(&vnodes, "vnodes", hashring.DefaultVirtualNodes, "number of virtual nodes per unit of weight")
	_ = cmd.MarkFlagRequired("nodes")
	return cmd
}
