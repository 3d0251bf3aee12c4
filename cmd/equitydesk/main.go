package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"EquityDesk/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "equitydesk",
	Short: "EquityDesk produces reviewed equity analysis reports",
	Long: `EquityDesk fetches price history and news for a ticker, computes technical
indicators, drafts a report with a text-generation provider and checks every
quoted number against the computed values before publishing it.`,
	SilenceUsage: true,
}

func main() {
	defaultPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
