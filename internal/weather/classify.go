package weather

import "github.com/i474232898/openwx/internal/common"

// Classify maps a provider condition text to a Category.
//
// The checks overlap ("light rain showers" mentions both rain and shower, "patchy snow
// with clouds" both snow and cloud), so they run in a fixed order and the first match wins:
//
//	rain | shower  -> rain
//	cloud          -> cloudy
//	snow           -> snow
//	clear | sun    -> clear-day or clear-night, by isDay
//	anything else  -> default
func Classify(text string, isDay bool) Category {
	switch {
	case text == "":
		return CategoryDefault
	case common.HasAny(text, "rain", "shower"):
		return CategoryRain
	case common.HasAny(text, "cloud"):
		return CategoryCloudy
	case common.HasAny(text, "snow"):
		return CategorySnow
	case common.HasAny(text, "clear", "sun"):
		if isDay {
			return CategoryClearDay
		}
		return CategoryClearNight
	default:
		return CategoryDefault
	}
}
