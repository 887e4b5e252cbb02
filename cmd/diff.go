package cmd

import (
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	diffExitCode bool
	diffOutput   string
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [FILE|DIR]...",
		Short: "Show settings that differ from the declared profiles",
		Long: `Compares the declared connection profiles with NetworkManager and
prints every differing setting. Nothing is changed. With --exit-code the
command exits with status 2 when any connection is out of sync.`,
		RunE: runDiff,
	}
	cmd.Flags().BoolVar(&diffExitCode, "exit-code", false, "exit with status 2 when changes are pending")
	cmd.Flags().StringVarP(&diffOutput, "output", "o", outputText, "output format (text, json, yaml)")
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	run := *cfg
	run.Reconcile.DryRun = true

	s, err := newSyncer(&run, metrics.New(false), args)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.sync(cmd.Context())
	if err != nil {
		return err
	}

	if diffOutput == outputText && results.Changed() {
		renderDiffs(cmd.OutOrStdout(), results)
	}
	if err := printResults(cmd.OutOrStdout(), results, diffOutput); err != nil {
		return err
	}
	if err := failuresError(results); err != nil {
		return err
	}
	if diffExitCode && results.Changed() {
		return errChangesPending
	}
	return nil
}
