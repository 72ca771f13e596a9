package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dgryski/go-jump"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	hashring "github.com/Sarankumar18/study-hub-sub003"
)

func newRelocationCmd() *cobra.Command {
	var (
		servers int
		keys    int
		vnodes  int
	)
	cmd := &cobra.Command{
		Use:   "relocation",
		Short: "Compare share of keys moved when one server is added",
		RunE: func(cmd *cobra.Command, args []string) error {
			if servers <= 0 || keys <= 0 {
				return fmt.Errorf("servers and keys must be positive")
			}
			ks := make([][]byte, keys)
			hs := make([]uint64, keys)
			for i := range ks {
				ks[i] = []byte(uuid.NewString())
				hs[i] = hashring.DefaultHash(ks[i])
			}

			ring, err := ringRelocation(ks, servers, vnodes)
			if err != nil {
				return err
			}
			var jumped, modulo int
			for _, h := range hs {
				if jump.Hash(h, servers) != jump.Hash(h, servers+1) {
					jumped++
				}
				if h%uint64(servers) != h%uint64(servers+1) {
					modulo++
				}
			}

			share := func(n int) float64 {
				return float64(n) / float64(keys) * 100
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 2, 2, ' ', 0)
			fmt.Fprintf(tw, "ALGORITHM\tMOVED\tSHARE\n")
			fmt.Fprintf(tw, "ideal\t%d\t%.2f%%\n", keys/(servers+1), 100/float64(servers+1))
			fmt.Fprintf(tw, "ring\t%d\t%.2f%%\n", ring, share(ring))
			fmt.Fprintf(tw, "jump\t%d\t%.2f%%\n", jumped, share(jumped))
			fmt.Fprintf(tw, "modulo\t%d\t%.2f%%\n", modulo, share(modulo))
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&servers, "servers", 10, "number of servers before addition")
	cmd.Flags().IntVar(&keys, "keys", 1e5, "number of keys to place")
	cmd.Flags().IntVar(&vnodes, "vnodes", hashring.DefaultVirtualNodes, "number of virtual nodes per server")
	return cmd
}

// ringRelocation returns number of keys which change their owner when one
// server is added to the ring of n servers.
func ringRelocation(keys [][]byte, n, vnodes int) (int, error) {
	r := hashring.Ring{
		VirtualNodes: vnodes,
		Logger:       logger,
	}
	for i := 0; i < n; i++ {
		if _, err := r.AddNode(hashring.Node{ID: uuid.NewString()}); err != nil {
			return 0, err
		}
	}
	prev := r.Snapshot()
	moves, err := r.AddNode(hashring.Node{ID: uuid.NewString()})
	if err != nil {
		return 0, err
	}
	next := r.Snapshot()
	logger.Debug("server added",
		"moves", len(moves),
		"version", next.Version(),
	)

	var moved int
	for _, k := range keys {
		a, err := prev.Owner(k)
		if err != nil {
			return 0, err
		}
		b, err := next.Owner(k)
		if err != nil {
			return 0, err
		}
		if a.ID != b.ID {
			moved++
		}
	}
	return moved, nil
}
