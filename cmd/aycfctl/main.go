// Package main is the entry point for aycfctl, the offline companion of the
// AYCF API: it inspects the route network, previews searches and prepares
// the database.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"aycf/cmd/aycfctl/internal/commands"
	"aycf/internal/config"
	"aycf/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logger := logging.WithComponent("aycfctl")
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logging.Configure(logging.Config{Level: cfg.LogLevel, Output: os.Stderr, Service: "aycfctl"})

	rootCmd := &cobra.Command{
		Use:   "aycfctl",
		Short: "AYCF flight finder tooling",
		Long: `aycfctl works on the same configuration as the API.

It lists the airports of the route network, previews which segments a
search would check and how long that takes, imports a freshly extracted
route table and applies the database schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.InitRouteCommands(rootCmd, cfg.Routes)
	commands.InitSearchCommands(rootCmd, cfg.Routes)
	commands.InitDBCommands(rootCmd, cfg.Database)

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}
