package cmd

import (
	"fmt"

	"github.com/evanofslack/nmcli-sync/internal/lookup"
	"github.com/evanofslack/nmcli-sync/internal/metrics"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Read and write secrets in the lookup store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY...",
			Short: "Print the value of each key, an empty line when missing",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runLookupGet,
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Store a value",
			Args:  cobra.ExactArgs(2),
			RunE:  runLookupSet,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored keys (badger backend only)",
			Args:  cobra.NoArgs,
			RunE:  runLookupList,
		},
	)
	return cmd
}

func openStore() (lookup.Store, error) {
	return lookup.New(cfg.Lookup, metrics.New(false))
}

func runLookupGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	values, err := lookup.Lookup(cmd.Context(), store, args...)
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

func runLookupSet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Set(cmd.Context(), args[0], args[1])
}

func runLookupList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	lister, ok := store.(lookup.Lister)
	if !ok {
		return fmt.Errorf("backend %s cannot list keys", cfg.Lookup.Backend)
	}
	keys, err := lister.Keys(cmd.Context())
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}
