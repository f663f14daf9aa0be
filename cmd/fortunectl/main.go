// Command fortunectl is the operator CLI: migrations, quota resets, point
// corrections and dev tokens.
package main

import (
	"fmt"
	"os"

	"fortuna/config"
	"fortuna/internal/database"
	"fortuna/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "fortunectl",
		Short:         "Operator tooling for the fortuna backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(limitsCmd())
	rootCmd.AddCommand(pointsCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(adminKeyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env bundles what every command needs.
type env struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.Logger
}

func openEnv(withDB bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}
	if withDB {
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		e.db = db
	}
	return e, nil
}
