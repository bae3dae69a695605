package weather

// Category is the deterministic background/icon bucket derived from a condition text.
type Category string

const (
	CategoryDefault    Category = "default"
	CategoryRain       Category = "rain"
	CategoryCloudy     Category = "cloudy"
	CategorySnow       Category = "snow"
	CategoryClearDay   Category = "clear-day"
	CategoryClearNight Category = "clear-night"
)

// Reading is a normalized current-conditions observation.
// It is only ever produced by a provider client decoding a response.
type Reading struct {
	LocationLabel    string  `json:"locationLabel" validate:"required"`
	CountryLabel     string  `json:"countryLabel"`
	LocalTimestamp   string  `json:"localTimestamp"`
	TemperatureC     float64 `json:"temperatureC"`
	FeelsLikeC       float64 `json:"feelsLikeC"`
	HumidityPct      int     `json:"humidityPct" validate:"gte=0,lte=100"`
	WindKph          float64 `json:"windKph" validate:"gte=0"`
	ConditionText    string  `json:"conditionText"`
	ConditionIconRef string  `json:"conditionIconRef"`
	IsDaytime        bool    `json:"isDaytime"`
}

// ForecastDay is a single day summary within a Forecast.
type ForecastDay struct {
	Date             string  `json:"date"`
	AvgTemperatureC  float64 `json:"avgTemperatureC"`
	AvgHumidityPct   int     `json:"avgHumidityPct"`
	MaxWindKph       float64 `json:"maxWindKph"`
	ConditionText    string  `json:"conditionText"`
	ConditionIconRef string  `json:"conditionIconRef"`
}

// Forecast is a multi-day forecast ordered by Date ascending.
type Forecast []ForecastDay

const (
	MinForecastDays = 1
	MaxForecastDays = 7
)
