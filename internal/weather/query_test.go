package weather_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/openwx/internal/weather"
)

func TestPlace_TrimsAndRejectsBlank(t *testing.T) {
	q, err := weather.Place("  Paris \t")
	require.NoError(t, err)
	assert.Equal(t, weather.QueryPlace, q.Kind())
	assert.Equal(t, "Paris", q.String())

	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := weather.Place(raw)
		require.Error(t, err, "raw=%q", raw)
		assert.ErrorIs(t, err, weather.ErrInvalidInput)
		assert.Equal(t, "Please enter a city name.", err.Error())
	}
}

func TestCoordinates_RoundsToFourDecimals(t *testing.T) {
	q, err := weather.Coordinates(12.971399, 77.594563)
	require.NoError(t, err)
	assert.Equal(t, "12.9714,77.5946", q.String())

	lat, lon := q.LatLon()
	assert.Equal(t, 12.9714, lat)
	assert.Equal(t, 77.5946, lon)

	same, err := weather.Coordinates(12.97141, 77.59459)
	require.NoError(t, err)
	assert.Equal(t, q, same, "nearby fixes normalize to the same query")
}

func TestCoordinates_OutOfRange(t *testing.T) {
	cases := []struct{ lat, lon float64 }{
		{91, 0}, {-90.5, 0}, {0, 180.1}, {0, -181}, {math.NaN(), 0},
	}
	for _, c := range cases {
		_, err := weather.Coordinates(c.lat, c.lon)
		assert.ErrorIs(t, err, weather.ErrInvalidInput, "lat=%v lon=%v", c.lat, c.lon)
	}
}

func TestFromOrigin(t *testing.T) {
	q := weather.FromOrigin()
	assert.Equal(t, weather.QueryOrigin, q.Kind())
	assert.Equal(t, "auto:ip", q.String())
	assert.False(t, q.IsZero())
	assert.True(t, weather.Query{}.IsZero())
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw  string
		kind weather.QueryKind
		wire string
	}{
		{"Tokyo", weather.QueryPlace, "Tokyo"},
		{"  São Paulo  ", weather.QueryPlace, "São Paulo"},
		{"Paris, FR", weather.QueryPlace, "Paris, FR"},
		{"12.971399, 77.594563", weather.QueryCoordinates, "12.9714,77.5946"},
		{"-33.8688,151.2093", weather.QueryCoordinates, "-33.8688,151.2093"},
		{"AUTO:IP", weather.QueryOrigin, "auto:ip"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := weather.ParseQuery(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, q.Kind())
			assert.Equal(t, tt.wire, q.String())
		})
	}

	_, err := weather.ParseQuery("   ")
	assert.ErrorIs(t, err, weather.ErrInvalidInput)

	_, err = weather.ParseQuery("95,10")
	assert.ErrorIs(t, err, weather.ErrInvalidInput)
}
