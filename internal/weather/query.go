package weather

import (
	"math"
	"strconv"
	"strings"
)

// QueryKind tags the variant held by a Query.
type QueryKind int

const (
	QueryPlace QueryKind = iota + 1
	QueryCoordinates
	QueryOrigin
)

// originSentinel is how the provider is asked to infer the location from the caller's IP.
const originSentinel = "auto:ip"

// coordinatePrecision bounds cache/log cardinality and matches provider expectations.
const coordinatePrecision = 4

// Query is a normalized location identifier. The zero value is not a valid query;
// construct with Place, Coordinates or FromOrigin. Queries are comparable with ==.
type Query struct {
	kind  QueryKind
	place string
	lat   float64
	lon   float64
}

// Place builds a place-name query from raw user text.
func Place(text string) (Query, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return Query{}, invalidInput("query", "Please enter a city name.")
	}
	return Query{kind: QueryPlace, place: name}, nil
}

// Coordinates builds a coordinate query rounded to 4 decimal places.
func Coordinates(lat, lon float64) (Query, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Query{}, invalidInput("coordinates", "Coordinates are out of range.")
	}
	return Query{kind: QueryCoordinates, lat: round4(lat), lon: round4(lon)}, nil
}

// FromOrigin builds the sentinel query resolved by the provider from the network origin.
func FromOrigin() Query {
	return Query{kind: QueryOrigin}
}

// ParseQuery accepts free text as typed into a search box or stored as a favorite:
// "lat,lon" becomes a coordinate query, "auto:ip" the origin sentinel, anything else a place.
func ParseQuery(raw string) (Query, error) {
	text := strings.TrimSpace(raw)
	if strings.EqualFold(text, originSentinel) {
		return FromOrigin(), nil
	}
	if lat, lon, ok := splitLatLon(text); ok {
		return Coordinates(lat, lon)
	}
	return Place(text)
}

func splitLatLon(text string) (float64, float64, bool) {
	a, b, found := strings.Cut(text, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func round4(v float64) float64 {
	// Round through the formatted value so equality matches the wire form exactly.
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', coordinatePrecision, 64), 64)
	return f
}

// Kind reports the variant.
func (q Query) Kind() QueryKind { return q.kind }

// IsZero reports whether q is the unset query.
func (q Query) IsZero() bool { return q.kind == 0 }

// PlaceName returns the trimmed name for place queries.
func (q Query) PlaceName() string { return q.place }

// LatLon returns the rounded coordinates for coordinate queries.
func (q Query) LatLon() (float64, float64) { return q.lat, q.lon }

// String returns the provider wire form of the query.
func (q Query) String() string {
	switch q.kind {
	case QueryPlace:
		return q.place
	case QueryCoordinates:
		return strconv.FormatFloat(q.lat, 'f', coordinatePrecision, 64) + "," +
			strconv.FormatFloat(q.lon, 'f', coordinatePrecision, 64)
	case QueryOrigin:
		return originSentinel
	default:
		return ""
	}
}
