package weather

import "context"

// Provider abstracts the remote weather data source (relay or WeatherAPI.com).
// Implementations perform exactly one round trip per call and never retry.
type Provider interface {
	FetchCurrent(ctx context.Context, q Query) (Reading, error)
	FetchForecast(ctx context.Context, q Query, days int) (Forecast, error)
}

// ValidateDays checks a requested forecast length.
func ValidateDays(days int) error {
	if days < MinForecastDays || days > MaxForecastDays {
		return invalidInput("days", "days must be between 1 and 7")
	}
	return nil
}
