package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cspace/am"
	"github.com/teranos/cspace/cmd/cspace/commands"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cspace",
	Short: "cspace - Conceptual space engine",
	Long: `cspace - Conceptual spaces: quality dimensions, convex categories and
similarity-based reasoning.

Available commands:
  am      - Show and validate configuration
  space   - Query and analyze conceptual spaces defined in files
  db      - Store and load space snapshots
  version - Show version information

Examples:
  cspace am show                        # Show current configuration
  cspace space inspect colour.toml      # Summarize a space
  cspace space path colour.toml red blue
  cspace db save colour.toml            # Snapshot a space`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			am.SetConfigPath(path)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs := false
		if cfg, err := am.Load(); err == nil {
			jsonLogs = cfg.Log.JSON
			if cfg.Log.Theme != "" && os.Getenv("CSPACE_LOG_THEME") == "" {
				logger.SetTheme(cfg.Log.Theme)
			}
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			pterm.DisableStyling()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (overrides user and project config)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.SpaceCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		stop()
		os.Exit(1)
	}
}
