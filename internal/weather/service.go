package weather

import (
	"context"
	"time"

	"github.com/i474232898/openwx/internal/logger"
)

// defaultCommandTimeout bounds a single command round trip when the caller's context has none.
const defaultCommandTimeout = 15 * time.Second

// Service answers the stateless surface commands getWeather and getForecast.
// It owns no session state; sessions and surfaces call the Provider themselves.
type Service struct {
	provider Provider
	log      *logger.Logger
}

// NewService creates a new Service.
func NewService(provider Provider, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.Named("commands"),
	}
}

// GetWeather normalizes raw query text and fetches current conditions.
func (s *Service) GetWeather(ctx context.Context, raw string) (Reading, error) {
	q, err := ParseQuery(raw)
	if err != nil {
		return Reading{}, err
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	reading, err := s.provider.FetchCurrent(ctx, q)
	if err != nil {
		s.log.Infow("getWeather failed", "query", q.String(), "err", err)
		return Reading{}, err
	}
	return reading, nil
}

// GetForecast normalizes raw query text and fetches a days-long forecast.
func (s *Service) GetForecast(ctx context.Context, raw string, days int) (Forecast, error) {
	if err := ValidateDays(days); err != nil {
		return nil, err
	}
	q, err := ParseQuery(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	forecast, err := s.provider.FetchForecast(ctx, q, days)
	if err != nil {
		s.log.Infow("getForecast failed", "query", q.String(), "days", days, "err", err)
		return nil, err
	}
	return forecast, nil
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, defaultCommandTimeout)
}
