package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich every configured file pair",
	Long:  "Processes each input/output pair from the files section of the config in order. With no files configured, activites.json and hotels.json are processed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		updater, err := newUpdater(cmd, newGeocodeClient(cfg.Geocode))
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "run"))
		log.Info("starting run", zap.Int("files", len(cfg.Files)))

		for _, f := range cfg.Files {
			stats, err := updater.UpdateFile(ctx, f.Input, f.Output)
			if err != nil {
				return eris.Wrapf(err, "run: update %s", f.Input)
			}
			if err := printSummary(cmd, f.Input, f.Output, stats); err != nil {
				return err
			}
		}

		log.Info("run complete")
		return nil
	},
}

func init() {
	addUpdaterFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
