package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Gatehouse CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse - account registration and login service",
		Long: `Gatehouse is a standalone authentication service providing account
registration and credential login over HTTP, backed by PostgreSQL,
with argon2id password hashing and JWT bearer tokens.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// resolveConfigPath returns the explicit --config path, or the default
// XDG location if a config file exists there, or empty.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	candidate := filepath.Join(xdg.ConfigDir(), "gatehouse.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
