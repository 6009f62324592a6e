package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adwelink/ams-api/internal/shared/config"
	"github.com/adwelink/ams-api/internal/shared/database"
	"github.com/adwelink/ams-api/internal/shared/utils"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "amsctl",
		Short:         "Operator tooling for the Adwelink AMS",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(bootstrapAdminCmd())
	rootCmd.AddCommand(inviteCmd())
	rootCmd.AddCommand(importLeadsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connect loads config from the environment and opens the database.
// Logs go to stderr so command output stays pipeable.
func connect() (*config.Config, *database.DB) {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env, cfg.LogLevel, "")
	return cfg, database.NewDB(cfg.DatabaseURL, cfg.LogLevel == "debug")
}
