package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNoFeatures = errors.New(`missing "features" array`)

// Feed is the outcome of parsing one GeoJSON document.
type Feed struct {
	Earthquakes []Earthquake
	Skipped     int // features dropped for missing or mistyped properties
}

// jsonObject gives exact, case-sensitive key lookup. Struct decoding would
// also accept "Mag" for "mag".
type jsonObject map[string]json.RawMessage

// ParseFeed decodes a USGS GeoJSON FeatureCollection. A document that is not an
// object with a "features" array is a FailureParse LoadError. Individual
// features that cannot be turned into a complete Earthquake are skipped and
// counted; output order follows the feed.
func ParseFeed(raw []byte) (Feed, error) {
	var root jsonObject
	if err := json.Unmarshal(raw, &root); err != nil {
		return Feed{}, &LoadError{Kind: FailureParse, Err: err}
	}
	features, ok, err := field[[]json.RawMessage](root, "features")
	if err != nil {
		return Feed{}, &LoadError{Kind: FailureParse, Err: err}
	}
	if !ok {
		return Feed{}, &LoadError{Kind: FailureParse, Err: errNoFeatures}
	}

	feed := Feed{Earthquakes: make([]Earthquake, 0, len(features))}
	for _, rawFeature := range features {
		eq, ok := parseFeature(rawFeature)
		if !ok {
			feed.Skipped++
			continue
		}
		feed.Earthquakes = append(feed.Earthquakes, eq)
	}
	return feed, nil
}

// ParseEarthquakes is ParseFeed without the error: a structural failure
// yields an empty, non-nil slice.
func ParseEarthquakes(raw []byte) []Earthquake {
	feed, err := ParseFeed(raw)
	if err != nil {
		return []Earthquake{}
	}
	return feed.Earthquakes
}

func parseFeature(raw json.RawMessage) (Earthquake, bool) {
	var f jsonObject
	if err := json.Unmarshal(raw, &f); err != nil {
		return Earthquake{}, false
	}
	props, ok, err := field[jsonObject](f, "properties")
	if err != nil || !ok {
		return Earthquake{}, false
	}

	place, okPlace, errPlace := field[string](props, "place")
	mag, okMag, errMag := field[float64](props, "mag")
	ms, okTime, errTime := field[int64](props, "time")
	url, okURL, errURL := field[string](props, "url")
	if err := errors.Join(errPlace, errMag, errTime, errURL); err != nil {
		return Earthquake{}, false
	}
	if !okPlace || !okMag || !okTime || !okURL {
		return Earthquake{}, false
	}
	return Earthquake{
		Location:   place,
		Magnitude:  mag,
		OccurredAt: ms,
		DetailURL:  url,
	}, true
}

// field decodes obj[key] into T. ok is false when the key is absent or null.
func field[T any](obj jsonObject, key string) (v T, ok bool, err error) {
	raw, found := obj[key]
	if !found {
		return v, false, nil
	}
	var p *T
	if err := json.Unmarshal(raw, &p); err != nil {
		return v, false, fmt.Errorf("%s: %w", key, err)
	}
	if p == nil {
		return v, false, nil
	}
	return *p, true, nil
}
