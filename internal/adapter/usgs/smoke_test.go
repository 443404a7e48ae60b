//go:build usgs

package usgs

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real USGS API.
// Run with: go test -tags=usgs ./internal/adapter/usgs/ -v -count=1

const smokeEndpoint = "https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&eventtype=earthquake&orderby=time&limit=10"

func TestSmoke_FetchAndParse(t *testing.T) {
	c := NewClient(15*time.Second, 10*time.Second, 10<<20, testUserAgent, discardLogger())

	body, err := c.Fetch(context.Background(), smokeEndpoint)
	require.NoError(t, err)

	feed, err := domain.ParseFeed(body)
	require.NoError(t, err)
	assert.NotEmpty(t, feed.Earthquakes)
	assert.LessOrEqual(t, len(feed.Earthquakes)+feed.Skipped, 10)

	for _, e := range feed.Earthquakes {
		assert.NotEmpty(t, e.DetailURL)
		assert.Positive(t, e.OccurredAt)
	}
}

func TestSmoke_BadQueryIsBadStatus(t *testing.T) {
	c := NewClient(15*time.Second, 10*time.Second, 10<<20, testUserAgent, discardLogger())

	_, err := c.Fetch(context.Background(), "https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&limit=-1")
	require.Error(t, err)
	assert.Equal(t, domain.FailureBadStatus, domain.KindOf(err))
}
