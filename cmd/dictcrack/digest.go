package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ykhdr/crack-dict/internal/digest"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
)

func NewDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <word>...",
		Short: "Print the hex digest of each word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("algorithm")
			fn, err := digest.Lookup(name)
			if err != nil {
				return err
			}
			for _, word := range args {
				fmt.Fprintln(cmd.OutOrStdout(), fn(word))
			}
			return nil
		},
	}
}

func NewAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported hash algorithms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range digest.Names() {
				if name == digest.Default {
					name += " (default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nstrategies: %s\n", strings.Join(strategy.Names(), ", "))
		},
	}
}
