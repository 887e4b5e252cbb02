package cmd

import (
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	applyDryRun bool
	applyOutput string
)

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [FILE|DIR]...",
		Short: "Create, modify or delete connections to match the declared profiles",
		Long: `Reads connection profiles from the given files or directories (or the
configured connections) and applies the settings that differ from
NetworkManager. Connections already in sync are not touched.`,
		RunE: runApply,
	}
	cmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "plan changes without applying them")
	cmd.Flags().StringVarP(&applyOutput, "output", "o", outputText, "output format (text, json, yaml)")
	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	run := *cfg
	if applyDryRun {
		run.Reconcile.DryRun = true
	}

	s, err := newSyncer(&run, metrics.New(false), args)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.sync(cmd.Context())
	if err != nil {
		return err
	}
	if err := printResults(cmd.OutOrStdout(), results, applyOutput); err != nil {
		return err
	}
	return failuresError(results)
}
