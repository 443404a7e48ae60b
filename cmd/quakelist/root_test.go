package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	feed, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "usgs_feed_sample.geojson"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write(feed)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestQuakelist_Table(t *testing.T) {
	srv := newFeedServer(t)

	out, err := execute(t, "--endpoint", srv.URL, "--timezone", "UTC")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "MAG"))
	assert.Contains(t, lines[1], "7.2")
	assert.Contains(t, lines[1], "88km N of")
	assert.Contains(t, lines[1], "Yelizovo, Russia")
	assert.Contains(t, lines[1], "Jan 30, 2016")
	assert.Contains(t, lines[5], "Near the")
}

func TestQuakelist_JSONWithLimit(t *testing.T) {
	srv := newFeedServer(t)

	out, err := execute(t, "--endpoint", srv.URL, "--timezone", "UTC", "--json", "-n", "2")
	require.NoError(t, err)

	var items []domain.ListItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "7.2", items[0].MagnitudeLabel)
	assert.Equal(t, 7, items[0].MagnitudeBucket)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/eventpage/us20004vvx", items[0].DetailURL)
}

func TestQuakelist_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--endpoint", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "No earthquakes found.\n", out)
}

func TestQuakelist_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, stderr, err := executeWithStderr(t, "--endpoint", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "No earthquakes found.\n", out)
	assert.Contains(t, stderr, "feed load failed")
	assert.Contains(t, stderr, "status=503")
}

func TestQuakelist_SkippedFeaturesAreReported(t *testing.T) {
	srv := newFeedServer(t)

	_, stderr, err := executeWithStderr(t, "--endpoint", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped malformed features")
	assert.Contains(t, stderr, "skipped=2")
}

func TestQuakelist_InvalidTimezone(t *testing.T) {
	_, err := execute(t, "--timezone", "Mars/Olympus_Mons")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestQuakelist_RejectsArgs(t *testing.T) {
	_, err := execute(t, "extra")
	require.Error(t, err)
}
