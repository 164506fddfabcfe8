package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictcrack",
		Short: "Dictionary attack against a single hash",
		Long: `dictcrack hashes every line of a dictionary and reports the first line whose
digest equals the target hash.

The scan runs sequentially, on a bounded pool of goroutines, or as several
partitioned workers that share a coordination primitive.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "KDL configuration file")
	cmd.PersistentFlags().StringP("algorithm", "a", "", "Hash algorithm (default from config, sha256)")

	cmd.AddCommand(NewCrackCmd())
	cmd.AddCommand(NewDigestCmd())
	cmd.AddCommand(NewAlgorithmsCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
