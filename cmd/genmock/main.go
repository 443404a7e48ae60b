// Command genmock captures a live USGS GeoJSON response as a test fixture.
// The document is checked with the same parser the service uses, and a
// summary is printed for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -endpoint "https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&limit=20" \
//	  -out data/mock/usgs_feed_capture.geojson
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	endpoint := flag.String("endpoint", "", "USGS GeoJSON query URL")
	out := flag.String("out", "", "output path for the fixture")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Parse()

	if *endpoint == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -endpoint, -out")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := usgs.NewClient(15*time.Second, 10*time.Second, 10<<20, "quake-feed-genmock/1.0", slog.Default())
	raw, err := client.Fetch(ctx, *endpoint)
	if err != nil {
		return fmt.Errorf("fetching feed: %w", err)
	}

	feed, err := domain.ParseFeed(raw)
	if err != nil {
		return fmt.Errorf("feed does not parse: %w", err)
	}

	if err := writeFixture(*out, raw); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(feed)
	return nil
}

// writeFixture stores the document indented so fixture diffs stay readable.
func writeFixture(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// maxMagnitude reports false for an empty batch.
func maxMagnitude(earthquakes []domain.Earthquake) (float64, bool) {
	if len(earthquakes) == 0 {
		return 0, false
	}
	m := earthquakes[0].Magnitude
	for _, e := range earthquakes[1:] {
		m = max(m, e.Magnitude)
	}
	return m, true
}

func printStats(feed domain.Feed) {
	buckets := make(map[int]int)
	for _, e := range feed.Earthquakes {
		buckets[domain.MagnitudeBucket(e.Magnitude)]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Records: %d\n", len(feed.Earthquakes))
	fmt.Printf("Skipped: %d\n", feed.Skipped)
	if maxMag, ok := maxMagnitude(feed.Earthquakes); ok {
		fmt.Printf("Max magnitude: %s\n", domain.MagnitudeLabel(maxMag))
	}
	fmt.Print("By bucket:")
	for b := 1; b <= 10; b++ {
		if n := buckets[b]; n > 0 {
			fmt.Printf(" %d=%d", b, n)
		}
	}
	fmt.Println()

	if len(feed.Earthquakes) > 0 {
		first := domain.NewListItem(feed.Earthquakes[0], time.UTC)
		fmt.Printf("\nFirst record:\n")
		fmt.Printf("  Magnitude: %s (bucket %d)\n", first.MagnitudeLabel, first.MagnitudeBucket)
		fmt.Printf("  Location: %q / %q\n", first.LocationOffset, first.PrimaryLocation)
		fmt.Printf("  When: %s %s UTC\n", first.Date, first.Time)
		fmt.Printf("  URL: %s\n", first.DetailURL)
	}
}
