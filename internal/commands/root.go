package commands

import (
	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/buildinfo"
	"github.com/fakturownik/fakturownik/internal/config"
	"github.com/fakturownik/fakturownik/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// A nil settings value uses the built-in defaults.
func NewRootCommand(settings *config.Settings) *cobra.Command {
	if settings == nil {
		settings = &config.Settings{Log: logger.DefaultConfig()}
	}
	app := &app{settings: settings}

	rootCmd := &cobra.Command{
		Use:     "fakturownik",
		Short:   "Invoices, tax periods and JPK_V7M declarations for Polish sole traders",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&app.dir, "dir", "C", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newItemCommand(),
		newRateCommand(app),
		newAddCommand(app),
		newPeriodsCommand(app),
		newJPKCommand(app),
		newServeCommand(app),
	)

	return rootCmd
}
