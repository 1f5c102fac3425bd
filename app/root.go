// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
)

var (
	cfg        config.Config
	configPath string
	err        error
)

var rootCmd = &cobra.Command{
	Use:   "go-rbac-admin",
	Short: "GoRBAC-Admin is a web-based role and permission management service",
	Long: `GoRBAC-Admin is a web-based role and permission management service
that provides a REST API for managing users, roles and permissions, and a
natural-language command endpoint for administrators.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration directory")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
