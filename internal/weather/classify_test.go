package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/openwx/internal/weather"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text  string
		isDay bool
		want  weather.Category
	}{
		{"Light rain", true, weather.CategoryRain},
		{"Patchy light rain shower", false, weather.CategoryRain},
		{"Heavy Showers", true, weather.CategoryRain},
		{"Partly cloudy", true, weather.CategoryCloudy},
		{"Overcast clouds", false, weather.CategoryCloudy},
		{"Patchy snow with clouds", true, weather.CategoryCloudy},
		{"Blowing snow", true, weather.CategorySnow},
		{"Light rain and snow", true, weather.CategoryRain},
		{"Sunny", true, weather.CategoryClearDay},
		{"Clear", false, weather.CategoryClearNight},
		{"Clear", true, weather.CategoryClearDay},
		{"Mist", true, weather.CategoryDefault},
		{"Fog", false, weather.CategoryDefault},
		{"", true, weather.CategoryDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, weather.Classify(tt.text, tt.isDay), "text=%q isDay=%v", tt.text, tt.isDay)
	}
}
