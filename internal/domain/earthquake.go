package domain

import (
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps LoadedAt; tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the snapshot time source. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Earthquake is one event extracted from the feed. Values are never partially
// populated: the parser drops a feature rather than build an incomplete record.
type Earthquake struct {
	Location   string  `json:"location"`
	Magnitude  float64 `json:"magnitude"`
	OccurredAt int64   `json:"occurred_at"` // epoch milliseconds
	DetailURL  string  `json:"detail_url"`
}

// Time returns OccurredAt as a time.Time in UTC.
func (e Earthquake) Time() time.Time {
	return time.UnixMilli(e.OccurredAt).UTC()
}

// Snapshot is the result of one completed load. It is replaced wholesale by
// the next load, never updated in place.
type Snapshot struct {
	Earthquakes []Earthquake `json:"earthquakes"`
	LoadedAt    time.Time    `json:"loaded_at"`
}

// NewSnapshot stamps a batch of earthquakes with the current time. The slice
// is copied so later changes by the caller do not leak into the snapshot.
func NewSnapshot(earthquakes []Earthquake) Snapshot {
	if earthquakes == nil {
		earthquakes = []Earthquake{}
	}
	return Snapshot{
		Earthquakes: slices.Clone(earthquakes),
		LoadedAt:    clock.Now().UTC(),
	}
}

// IsZero reports whether no load has completed yet.
func (s Snapshot) IsZero() bool {
	return s.LoadedAt.IsZero()
}

// Len returns the number of earthquakes in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Earthquakes)
}

// At returns the earthquake at index i and whether i was in range.
func (s Snapshot) At(i int) (Earthquake, bool) {
	if i < 0 || i >= len(s.Earthquakes) {
		return Earthquake{}, false
	}
	return s.Earthquakes[i], true
}
