package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coordfill/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coordfill",
	Short: "Add coordinates to address records in JSON files",
	Long:  "Geocodes every address record in grouped JSON documents via geocode.maps.co, retrying on rate limits, and writes enriched copies with lat/lon fields.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
