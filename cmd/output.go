package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/coordfill/internal/enrich"
	"github.com/sells-group/coordfill/pkg/geocode"
)

type fileSummary struct {
	Input  string        `json:"input"`
	Output string        `json:"output"`
	Stats  *enrich.Stats `json:"stats"`
}

type fetchResult struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

// printSummary reports the outcome of one file, as text or as a JSON object.
func printSummary(cmd *cobra.Command, input, output string, stats *enrich.Stats) error {
	if jsonOutput(cmd) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fileSummary{Input: input, Output: output, Stats: stats})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %d resolved, %d skipped, %d failed\n",
		input, output, stats.Resolved, stats.Skipped, stats.Failed)
	return err
}

// printCoordinates prints lat,lon as returned by the service, or decimal
// degrees in a JSON object.
func printCoordinates(cmd *cobra.Command, address string, coords *geocode.Coordinates) error {
	if !jsonOutput(cmd) {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s,%s\n", coords.Lat, coords.Lon)
		return err
	}

	lat, lon, err := coords.Float()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(fetchResult{Address: address, Lat: lat, Lon: lon})
}
