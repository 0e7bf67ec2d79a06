// Package commands provides the opendal-translate CLI commands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const appName = "opendal-translate"

// Version is set at build time.
var Version = "dev"

// Root builds the command tree.
func Root() *cobra.Command {
	var (
		configDir string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Translate structured metadata records into canonical form",
		Long: `opendal-translate converts semi-structured dataset metadata, as
harvested from open data portals and flattened by the structuring stage,
into canonical schema-validated records.

Input and output are newline-delimited JSON. Configuration and reference
data (field mappings, format and language tables, EPSG codes, the subject
taxonomy) are embedded; any file in the configuration directory overrides
its embedded counterpart.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Configuration directory (empty: embedded defaults)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(translateCmd(&configDir))
	cmd.AddCommand(checkConfigCmd(&configDir))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func setupLogging(logLevel string) error {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
