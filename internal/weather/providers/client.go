package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/weather"
)

// Mode selects which endpoint layout the client speaks.
type Mode string

const (
	// ModeRelay talks to the thin relay service: /weather and /forecast, static key in a header.
	ModeRelay Mode = "relay"
	// ModeDirect talks to WeatherAPI.com: /current.json and /forecast.json, key in the query.
	ModeDirect Mode = "direct"
)

const (
	DefaultRelayBaseURL  = "https://weather-proxy-fb81.onrender.com"
	DefaultDirectBaseURL = "https://api.weatherapi.com/v1"

	clientKeyHeader = "x-client-key"
)

// Options configures a Client.
type Options struct {
	Mode      Mode
	BaseURL   string
	ClientKey string // relay only, sent as x-client-key when set
	APIKey    string // direct only
}

// Client implements weather.Provider against the relay or WeatherAPI.com.
type Client struct {
	mode       Mode
	baseURL    string
	clientKey  string
	apiKey     string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewClient builds a provider client. The HTTP client's timeout bounds each round trip.
func NewClient(httpClient *http.Client, opts Options, metrics *observability.Metrics, log *logger.Logger) *Client {
	mode := opts.Mode
	if mode == "" {
		mode = ModeRelay
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultRelayBaseURL
		if mode == ModeDirect {
			base = DefaultDirectBaseURL
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider-" + string(mode),
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		mode:       mode,
		baseURL:    strings.TrimRight(base, "/"),
		clientKey:  opts.ClientKey,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		circuit:    cb,
		metrics:    metrics,
		log:        log.Named("provider"),
	}
}

// FetchCurrent retrieves current conditions for q.
func (c *Client) FetchCurrent(ctx context.Context, q weather.Query) (weather.Reading, error) {
	var payload currentPayload
	err := c.fetch(ctx, "current", q, nil, &payload)
	if err != nil {
		return weather.Reading{}, err
	}
	reading, err := payload.toReading()
	c.observeOutcome("current", err)
	return reading, err
}

// FetchForecast retrieves a days-long forecast for q.
func (c *Client) FetchForecast(ctx context.Context, q weather.Query, days int) (weather.Forecast, error) {
	if err := weather.ValidateDays(days); err != nil {
		c.observeOutcome("forecast", err)
		return nil, err
	}
	var payload forecastPayload
	err := c.fetch(ctx, "forecast", q, url.Values{"days": {strconv.Itoa(days)}}, &payload)
	if err != nil {
		return nil, err
	}
	forecast, err := payload.toForecast(days)
	c.observeOutcome("forecast", err)
	return forecast, err
}

// fetch performs the round trip and decodes into v. Failures are recorded before returning;
// successes are recorded by the caller once required fields are validated.
func (c *Client) fetch(ctx context.Context, kind string, q weather.Query, extra url.Values, v any) error {
	if q.IsZero() {
		err := &weather.InvalidInputError{Field: "query", Message: "Please enter a city name."}
		c.observeOutcome(kind, err)
		return err
	}

	values := url.Values{}
	values.Set("q", q.String())
	for k, vs := range extra {
		values[k] = vs
	}

	header := http.Header{}
	switch c.mode {
	case ModeDirect:
		values.Set("key", c.apiKey)
	default:
		if c.clientKey != "" {
			header.Set(clientKeyHeader, c.clientKey)
		}
	}

	req, err := buildRequest(ctx, c.baseURL+c.path(kind)+"?"+values.Encode(), header)
	if err != nil {
		c.observeOutcome(kind, err)
		return &weather.TransportError{Err: err}
	}

	start := time.Now()
	body, err := doRequest(c.httpClient, c.circuit, req)
	c.metrics.ProviderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		c.log.Debugw("provider request failed", "kind", kind, "query", q.String(), "err", err)
		c.observeOutcome(kind, err)
		return err
	}

	if err := decode(body, v); err != nil {
		c.observeOutcome(kind, err)
		return err
	}
	return nil
}

func (c *Client) path(kind string) string {
	if c.mode == ModeDirect {
		return "/" + kind + ".json"
	}
	if kind == "current" {
		return "/weather"
	}
	return "/forecast"
}

func (c *Client) observeOutcome(kind string, err error) {
	c.metrics.ProviderRequests.WithLabelValues(kind, outcomeLabel(err)).Inc()
	var malformed *weather.MalformedResponseError
	if errors.As(err, &malformed) {
		c.log.Warnw("malformed provider response", "kind", kind, "detail", malformed.Detail())
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, weather.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, weather.ErrProvider):
		return "provider"
	case errors.Is(err, weather.ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
