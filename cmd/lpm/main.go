// Command lpm answers longest-prefix-match queries against a table of
// IP subnets. It loads a `<subnet>/<prefix_len> <tag>` table from the
// file named by -i, then reads addresses one per line from standard
// input and prints the tag of the longest covering prefix (or "-") for
// each, in input order.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencidr/lpm/internal/logging"
	"github.com/opencidr/lpm/internal/queryio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "lpm -i FILE",
		Short: "Longest-prefix-match lookups against an IP subnet table",
		// SilenceUsage/SilenceErrors are both true because cobra applies
		// them uniformly to every error, flag-parse or RunE alike; usage
		// printing is handled explicitly below instead, so only the
		// malformed-argument paths print it, not a file or parse error.
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				cmd.Println(cmd.UsageString())
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				cmd.Println(cmd.UsageString())
				return fmt.Errorf("lpm: -i is required")
			}
			return run(cmd, inputPath)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file of <prefix>/<len> <tag> entries")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.Println(cmd.UsageString())
		return err
	})
	cmd.SetOut(os.Stdout)

	return cmd
}

func run(cmd *cobra.Command, inputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		logging.Logger.Error().Err(err).Str("file", inputPath).Msg("open input file")
		return err
	}
	defer f.Close()

	tbl, err := queryio.BuildTable(f)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("load table")
		return err
	}
	logging.Logger.Info().
		Int("v4_prefixes", tbl.Len4()).
		Int("v6_prefixes", tbl.Len6()).
		Msg("table loaded")

	if err := queryio.RunQueries(cmd.InOrStdin(), os.Stdout, tbl); err != nil {
		logging.Logger.Error().Err(err).Msg("query stream")
		return err
	}
	return nil
}
