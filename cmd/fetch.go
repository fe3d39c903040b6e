package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <address>",
	Short: "Geocode one address and print lat,lon",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := newGeocodeClient(cfg.Geocode)
		address := strings.Join(args, " ")
		coords, err := client.Geocode(ctx, address)
		if err != nil {
			return err
		}

		return printCoordinates(cmd, address, coords)
	},
}

func init() {
	fetchCmd.Flags().Bool("json", false, "print a JSON object with decimal degrees")
	rootCmd.AddCommand(fetchCmd)
}
