package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	locationSeparator = "of"
	nearLocation      = "Near the"

	dateLayout = "Jan 02, 2006"
	timeLayout = "3:04 PM"
)

// magnitudeColors maps bucket 1..10 to the list item's circle color.
var magnitudeColors = [...]string{
	1:  "#4A7BA7",
	2:  "#04B4B3",
	3:  "#10CAC9",
	4:  "#F5A623",
	5:  "#FF7D50",
	6:  "#FC6644",
	7:  "#E75F40",
	8:  "#E13A20",
	9:  "#D93218",
	10: "#C03823",
}

// ListItem is the display projection of one Earthquake.
type ListItem struct {
	Magnitude       float64 `json:"magnitude"`
	MagnitudeLabel  string  `json:"magnitude_label"`
	MagnitudeBucket int     `json:"magnitude_bucket"`
	MagnitudeColor  string  `json:"magnitude_color"`
	LocationOffset  string  `json:"location_offset"`
	PrimaryLocation string  `json:"primary_location"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DetailURL       string  `json:"detail_url"`
}

// NewListItem derives every display field of e, rendering date and time in loc
// (UTC when loc is nil).
func NewListItem(e Earthquake, loc *time.Location) ListItem {
	offset, primary := SplitLocation(e.Location)
	bucket := MagnitudeBucket(e.Magnitude)
	return ListItem{
		Magnitude:       e.Magnitude,
		MagnitudeLabel:  MagnitudeLabel(e.Magnitude),
		MagnitudeBucket: bucket,
		MagnitudeColor:  MagnitudeColor(bucket),
		LocationOffset:  offset,
		PrimaryLocation: primary,
		Date:            DateLabel(e.OccurredAt, loc),
		Time:            TimeLabel(e.OccurredAt, loc),
		DetailURL:       e.DetailURL,
	}
}

// NewListItems projects a batch in order. The result is never nil.
func NewListItems(earthquakes []Earthquake, loc *time.Location) []ListItem {
	items := make([]ListItem, 0, len(earthquakes))
	for _, e := range earthquakes {
		items = append(items, NewListItem(e, loc))
	}
	return items
}

// MagnitudeLabel formats m with exactly one decimal digit. Rounding is
// half-to-even on the exact binary value, so 6.66 → "6.7" and 0.25 → "0.2".
func MagnitudeLabel(m float64) string {
	return strconv.FormatFloat(m, 'f', 1, 64)
}

// MagnitudeBucket classifies m by floor into 1..10. Everything below 2,
// including negative and non-finite values, lands in bucket 1.
func MagnitudeBucket(m float64) int {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	f := math.Floor(m)
	switch {
	case f < 2:
		return 1
	case f >= 10:
		return 10
	default:
		return int(f)
	}
}

// MagnitudeColor returns the hex color for a bucket; out-of-range buckets are
// clamped.
func MagnitudeColor(bucket int) string {
	bucket = max(1, min(bucket, 10))
	return magnitudeColors[bucket]
}

// SplitLocation splits a place on the first occurrence of the substring "of".
// The match is deliberately naive: any "of" inside a word also splits.
// Without a match the offset is "Near the" and the place is returned as is.
func SplitLocation(raw string) (offset, primary string) {
	before, after, found := strings.Cut(raw, locationSeparator)
	if !found {
		return nearLocation, raw
	}
	return strings.TrimRight(before, " ") + " " + locationSeparator, after
}

// DateLabel renders epoch milliseconds as e.g. "Jan 02, 2006".
func DateLabel(ms int64, loc *time.Location) string {
	return inZone(ms, loc).Format(dateLayout)
}

// TimeLabel renders epoch milliseconds as e.g. "3:04 PM".
func TimeLabel(ms int64, loc *time.Location) string {
	return inZone(ms, loc).Format(timeLayout)
}

func inZone(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}
