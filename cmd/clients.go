package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coordfill/internal/config"
	"github.com/sells-group/coordfill/internal/enrich"
	"github.com/sells-group/coordfill/internal/resilience"
	"github.com/sells-group/coordfill/pkg/geocode"
)

const defaultTimeout = 30 * time.Second

// newGeocodeClient builds the coordinate fetcher from configuration.
func newGeocodeClient(gc config.GeocodeConfig) *geocode.Client {
	timeout := time.Duration(gc.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return geocode.NewClient(gc.APIKey,
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithHTTPClient(&http.Client{Timeout: timeout}),
		geocode.WithRateLimit(gc.RequestsPerSecond),
		geocode.WithRetryConfig(resilience.FromRetryConfig(gc.MaxRetries, gc.InitialBackoffMs, gc.BackoffMultiplier)),
	)
}

// newUpdater builds the file updater. --pause and --refetch override the
// enrich section of the config when given.
func newUpdater(cmd *cobra.Command, g enrich.Geocoder) (*enrich.Updater, error) {
	pause := time.Duration(cfg.Enrich.PauseMs) * time.Millisecond
	if cmd.Flags().Changed("pause") {
		pause, _ = cmd.Flags().GetDuration("pause")
	}
	if pause < 0 {
		return nil, eris.Errorf("invalid pause %s: must not be negative", pause)
	}

	refetch := cfg.Enrich.Refetch
	if cmd.Flags().Changed("refetch") {
		refetch, _ = cmd.Flags().GetBool("refetch")
	}

	return enrich.New(g, enrich.WithPause(pause), enrich.WithRefetch(refetch)), nil
}

// addUpdaterFlags registers the flags shared by run and update.
func addUpdaterFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("refetch", false, "geocode records that already have lat/lon")
	cmd.Flags().Duration("pause", enrich.DefaultPause, "wait after each geocoded record (overrides enrich.pause_ms)")
	cmd.Flags().Bool("json", false, "print per-file stats as JSON")
}
