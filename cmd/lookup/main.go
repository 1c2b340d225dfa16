// Command lookup resolves a single address (or coordinate pair) to its
// National Weather Service forecast and prints the result.
//
// Usage:
//
//	go run ./cmd/lookup -address "4600 Silver Hill Rd, Washington, DC 20233"
//	go run ./cmd/lookup -lat 38.8459 -lon -76.9275 -json
//
// Upstream endpoints default to the same environment variables the service
// reads (CENSUS_BASE_URL, NWS_BASE_URL, ...) and can be overridden by flag.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/address-forecast-service/internal/adapter/census"
	"github.com/couchcryptid/address-forecast-service/internal/adapter/nws"
	"github.com/couchcryptid/address-forecast-service/internal/config"
	"github.com/couchcryptid/address-forecast-service/internal/domain"
	"github.com/couchcryptid/address-forecast-service/internal/observability"
	"github.com/couchcryptid/address-forecast-service/internal/pipeline"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load config: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	address := fs.String("address", "", "one-line street address to resolve")
	lat := fs.Float64("lat", 0, "latitude; use with -lon to skip geocoding")
	lon := fs.Float64("lon", 0, "longitude; use with -lat to skip geocoding")
	censusURL := fs.String("census-url", cfg.CensusBaseURL, "census geocoder base URL")
	nwsURL := fs.String("nws-url", cfg.NWSBaseURL, "weather.gov API base URL")
	userAgent := fs.String("user-agent", cfg.NWSUserAgent, "User-Agent sent to weather.gov")
	timeout := fs.Duration("timeout", cfg.UpstreamTimeout, "per-request upstream timeout")
	asJSON := fs.Bool("json", false, "print the full snapshot as JSON")
	verbose := fs.Bool("v", false, "log pipeline progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	useCoords := set["lat"] || set["lon"]
	if useCoords && !(set["lat"] && set["lon"]) {
		fmt.Fprintln(stderr, "-lat and -lon must be given together")
		return 2
	}
	if !useCoords && !set["address"] {
		fmt.Fprintln(stderr, "-address or -lat/-lon is required")
		fs.Usage()
		return 2
	}
	if useCoords && set["address"] {
		fmt.Fprintln(stderr, "-address cannot be combined with -lat/-lon")
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	metrics := observability.NewUnregisteredMetrics()

	geocoder := census.NewClient(*censusURL, cfg.CensusBenchmark, *timeout, metrics, logger)
	weather := nws.NewClient(*nwsURL, *userAgent, *timeout, metrics, logger)
	ctrl := pipeline.New(geocoder, weather, weather, logger, metrics)

	var snap domain.Snapshot
	if useCoords {
		snap = ctrl.SetCoordinates(ctx, domain.Coordinates{Latitude: *lat, Longitude: *lon})
	} else {
		snap = ctrl.Submit(ctx, *address)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			fmt.Fprintf(stderr, "FATAL: encode snapshot: %v\n", err)
			return 1
		}
	} else {
		printSnapshot(stdout, snap)
	}

	if snap.State != domain.StateReady {
		if !*asJSON {
			fmt.Fprintf(stderr, "lookup failed: %s\n", snap.Error)
		}
		return 1
	}
	return 0
}

func printSnapshot(w io.Writer, snap domain.Snapshot) {
	if snap.State != domain.StateReady {
		return
	}
	fmt.Fprintf(w, "Forecast for %s\n\n", snap.Coordinates)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range snap.Forecast {
		fmt.Fprintf(tw, "%s\t%g°%s\t%s\n", p.Name, p.Temperature, p.TemperatureUnit, p.ShortForecast)
	}
	tw.Flush() //nolint:errcheck // best-effort terminal output
}
