// Package cli provides the electivectl command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	appRepos "github.com/yigit/electives/internal/app/repositories"
	"github.com/yigit/electives/internal/bootstrap"
	"github.com/yigit/electives/internal/config"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "electivectl",
	Short: "electivectl manages the elective allocation database.",
	Long: `electivectl manages the elective allocation database: it applies migrations, ` +
		`seeds default subjects and students, mints development tokens and runs ` +
		`concurrency checks against the allocation engine.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default configs/config.yaml)")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the logger
func loadConfig() (*config.Config, zerolog.Logger, error) {
	return bootstrap.LoadConfigAndSetupLogger(configPath)
}

// openStore loads configuration and opens the migrated store
func openStore(ctx context.Context) (*config.Config, appRepos.AllocationStore, zerolog.Logger, error) {
	cfg, lgr, err := loadConfig()
	if err != nil {
		return nil, nil, lgr, err
	}
	store, err := bootstrap.OpenStore(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, lgr, err
	}
	return cfg, store, lgr, nil
}
