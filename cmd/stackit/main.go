package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string

	rootCmd = &cobra.Command{
		Use:           "stackit",
		Short:         "StackIt Q&A backend and command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("STACKIT_API_URL", "http://localhost:8080"), "base URL used by client commands")

	rootCmd.AddCommand(serveCmd, migrateCmd)
	rootCmd.AddCommand(clientCommands()...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
