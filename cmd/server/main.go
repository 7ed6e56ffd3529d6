package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "task-manager",
	Short:         "Task manager API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd, migrateCmd, setupAdminCmd)
}

// loadConfig reads defaults, the YAML file and the environment.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, fmt.Errorf("failed to set CONFIG_FILE: %w", err)
		}
	}
	return config.Load()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
