package cmd

import (
	"errors"
	"os"

	"github.com/evanofslack/nmcli-sync/internal/config"
	"github.com/evanofslack/nmcli-sync/internal/logger"
	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeChanges is returned by diff --exit-code when connections are
	// out of sync.
	ExitCodeChanges = 2
)

var errChangesPending = errors.New("connections out of sync")

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nmcli-sync",
	Short: "Keep NetworkManager connections in sync with declared profiles",
	Long: `nmcli-sync compares declared connection profiles with what
NetworkManager holds and applies only the settings that differ.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Configure(cfg.Log.Level, cfg.Log.Env)
		return nil
	},
}

func SetVersion(v string) {
	rootCmd.Version = v
}

func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nmcli-sync version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	if errors.Is(err, errChangesPending) {
		return ExitCodeChanges
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "nmcli-sync.yaml", "config file")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newFailoverCmd())
}
