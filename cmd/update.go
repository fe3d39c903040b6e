package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <input> <output>",
	Short: "Enrich a single JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("update"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		updater, err := newUpdater(cmd, newGeocodeClient(cfg.Geocode))
		if err != nil {
			return err
		}

		stats, err := updater.UpdateFile(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		return printSummary(cmd, args[0], args[1], stats)
	},
}

func init() {
	addUpdaterFlags(updateCmd)
	rootCmd.AddCommand(updateCmd)
}
