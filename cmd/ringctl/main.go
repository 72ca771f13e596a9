package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "ringctl",
		Short: "Inspect and benchmark consistent hashing rings",
		Long: `Ringctl builds consistent hashing rings in memory and reports how keys
are spread across nodes and how many of them move on membership changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "be verbose")

	rootCmd.AddCommand(
		newDistCmd(),
		newRelocationCmd(),
		newLookupCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
