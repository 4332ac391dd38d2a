// Package root contains the root command for the application.
package root

import (
	"github.com/spf13/cobra"

	"finsight/backend/internal/config"
	"finsight/backend/internal/logging"
)

var (
	// Cfg is the loaded configuration, available to all subcommands
	// after PersistentPreRunE.
	Cfg *config.Config

	// Log is the shared logger for command handlers.
	Log logging.Logger = logging.GetLogger()

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "finsight",
		Short: "Personal finance ledger pipeline",
		Long: `finsight ingests bank statements and receipts, classifies every
transaction into a spending category, and serves category, weekly and
deviation analytics over the resulting period ledgers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitializeConfig()
			if err != nil {
				return err
			}
			Cfg = cfg

			logrusLogger := config.ConfigureLoggingFromConfig(cfg)
			Log = logging.NewLogrusAdapterFromLogger(logrusLogger)
			logging.SetLogger(Log)
			return nil
		},
	}
)

// Init initializes the root command.
func Init() {
	Cmd.SilenceUsage = true
}
