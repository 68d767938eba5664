// Command portfolio serves the commit-history portfolio site and the tools
// that feed it.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Frank-Junran-Yang/portfolio/internal/config"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Commit-history portfolio site",
		Long: `portfolio serves a personal site whose meta page charts the
lines of code changed in every commit of the site itself.

Commands:
  serve     Serve the site and its JSON API
  import    Import a loc CSV or JSON Lines file into a record store
  stats     Summarise a dataset in the terminal or as an HTML report
  desktop   Open the site in a native window`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .portfolio.yaml in . or $HOME)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(desktopCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "portfolio %s\n", Version)
		},
	}
}

// loadConfig reads the configuration into v, which may already carry
// flag bindings, and builds the process logger from it.
func loadConfig(v *viper.Viper) (*config.Config, *log.Logger, error) {
	cfg, err := config.LoadWith(v, configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "portfolio",
	}), nil
}
