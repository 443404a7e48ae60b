// Package domain models USGS earthquake feed data and its display projection.
//
// # Data Source
//
// Earthquake events come from the USGS FDSN event web service, queried with
// format=geojson, e.g.
// https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&eventtype=earthquake&orderby=time&limit=100.
// The query parameters (event type, ordering, limit) are caller configuration;
// with orderby=time the feed is freshest-first and that order is preserved.
//
// # GeoJSON Conventions
//
// The response is a FeatureCollection. Only four properties of each feature
// are read:
//
//	{"type": "FeatureCollection",
//	 "features": [
//	   {"type": "Feature",
//	    "properties": {
//	      "place": "5km NNE of Tokyo, Japan",   // free text
//	      "mag":   6.7,                         // number, may be null upstream
//	      "time":  1454124312220,               // epoch milliseconds
//	      "url":   "https://earthquake.usgs.gov/earthquakes/eventpage/..."
//	    },
//	    "geometry": {...}, "id": "..."}]}
//
// Everything else (geometry, id, metadata, bbox) is ignored.
//
// A feature whose properties lack one of the four keys, carry null, or carry
// the wrong JSON type is dropped on its own; the rest of the batch is kept.
// A document whose root is not an object, or whose "features" is missing or
// not an array, is a parse failure (see [FailureParse]).
//
// # Display Conventions
//
// Place strings are usually "<distance> <compass> of <place>". The display
// splits them on the first occurrence of the substring "of", which is naive
// on purpose: "Gulf of California" also splits. Places without "of" are shown
// as "Near the" + place.
//
// Magnitudes are shown with one decimal digit and colored by bucket, where the
// bucket is floor(magnitude) clamped to 1..10:
//
//	<2 (incl. negative, NaN, ±Inf) → 1 | 2 … 9 → itself | ≥10 → 10
//
// Dates render as "Jan 02, 2006" and times as "3:04 PM" in a configured zone.
package domain
