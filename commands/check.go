package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OpenDaL/ingestion-and-transformation/config"
	"github.com/OpenDaL/ingestion-and-transformation/translate"
)

func checkConfigCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and reference data",
		Long: `Check-config loads the configuration directory (or the embedded
defaults), validates it and constructs the translation engine once, so a
broken override file fails here instead of in a batch run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(slog.Default()).Load(*configDir)
			if err != nil {
				return err
			}
			if _, err := translate.New(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"configuration ok: %d formats, %d languages, %d EPSG codes, %d subjects\n",
				len(cfg.Tables.Formats),
				len(cfg.Tables.Languages),
				len(cfg.Tables.EPSGCodes),
				len(cfg.Subjects),
			)
			return nil
		},
	}
}
