package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed-service/internal/config"
	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
	"github.com/spf13/cobra"
)

type listOptions struct {
	endpoint       string
	timezone       string
	connectTimeout time.Duration
	readTimeout    time.Duration
	maxBytes       int64
	userAgent      string
	limit          int
	asJSON         bool
	verbose        bool
}

func newRootCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "quakelist",
		Short: "Print the most recent earthquakes from the USGS event feed",
		Long: `quakelist issues a single request to the USGS earthquake event service,
parses the GeoJSON response, and prints one line per earthquake with its
magnitude, location, date, and time.

Features without a magnitude, place, time, or url are skipped. A failed
load is logged on stderr and prints the empty list.

Example:
  quakelist
  quakelist --timezone America/Los_Angeles --limit 10
  quakelist --endpoint "https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&minmag=6" --json`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", config.DefaultFeedURL, "USGS GeoJSON query URL")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "Local", "IANA time zone for dates and times")
	cmd.Flags().DurationVar(&opts.connectTimeout, "connect-timeout", 15*time.Second, "connection timeout")
	cmd.Flags().DurationVar(&opts.readTimeout, "read-timeout", 10*time.Second, "read timeout")
	cmd.Flags().Int64Var(&opts.maxBytes, "max-bytes", 10<<20, "max response bytes to read")
	cmd.Flags().StringVar(&opts.userAgent, "ua", "quakelist/1.0", "HTTP User-Agent")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "print at most n earthquakes (0 prints all)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print list items as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func runList(ctx context.Context, out, errOut io.Writer, opts *listOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
	}
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	client := usgs.NewClient(opts.connectTimeout, opts.readTimeout, opts.maxBytes, opts.userAgent, logger)
	p := pipeline.New(client, nil, opts.endpoint, logger, observability.NewUnregisteredMetrics())

	earthquakes := p.LoadEarthquakes(ctx, opts.endpoint)
	if opts.limit > 0 && len(earthquakes) > opts.limit {
		earthquakes = earthquakes[:opts.limit]
	}
	items := domain.NewListItems(earthquakes, loc)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	return printTable(out, items)
}

func printTable(out io.Writer, items []domain.ListItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No earthquakes found.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MAG\tOFFSET\tLOCATION\tDATE\tTIME")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.MagnitudeLabel, it.LocationOffset, strings.TrimSpace(it.PrimaryLocation), it.Date, it.Time)
	}
	return tw.Flush()
}
