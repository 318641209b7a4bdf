package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tooluse/internal/config"
	"github.com/skosovsky/tooluse/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tooluse",
	Short: "Parse and dispatch model tool calls",
	Long: `tooluse replays model output through the tool-use protocol layer: native function
calls (JSONL) or tag-delimited streamed text, dispatched to the built-in tools with
approvals prompted on the console.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "tooluse.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("workdir", "", "Working directory tools are confined to (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112 (overrides config)")
	rootCmd.PersistentFlags().Bool("yes", false, "Approve every tool without prompting")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("workdir") {
		cfg.Workdir, _ = cmd.Flags().GetString("workdir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	return cfg, cfg.Validate()
}

// setup loads the configuration and builds the app for a command.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, logging.New(level))
	if err != nil {
		return nil, fmt.Errorf("failed to init tools: %w", err)
	}
	return a, nil
}
