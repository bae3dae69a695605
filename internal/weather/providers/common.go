package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/openwx/internal/weather"
)

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// doRequest executes exactly one HTTP round trip through the circuit breaker and returns
// the raw body. Any status code is accepted: error payloads arrive with 4xx statuses and
// are classified by the decoder, not here. Only connection-level failures count against
// the breaker.
func doRequest(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) ([]byte, error) {
	if client == nil {
		return nil, &weather.TransportError{Err: errNoHTTPClient}
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, fmt.Errorf("read response body: %w", readErr)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.TransportError{Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		return nil, &weather.TransportError{Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &weather.TransportError{Err: fmt.Errorf("unexpected result type from circuit breaker")}
	}
	return body, nil
}

// buildRequest creates a GET request bound to ctx.
func buildRequest(ctx context.Context, fullURL string, header http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}
