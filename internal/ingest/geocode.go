package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/lox/niceenough/internal/httputil"
	"github.com/lox/niceenough/internal/metrics"
	"github.com/lox/niceenough/internal/models"
)

const defaultGeocodeURL = "https://api.radar.io/v1/search/autocomplete"

// GeocodeClient resolves free-text location queries via the Radar
// autocomplete API.
type GeocodeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewGeocodeClient(apiKey string) *GeocodeClient {
	return &GeocodeClient{
		apiKey:  apiKey,
		baseURL: defaultGeocodeURL,
		client:  httputil.NewClient(),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "geocode",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

type geocodeResponse struct {
	Addresses []struct {
		FormattedAddress string `json:"formattedAddress"`
		AddressLabel     string `json:"addressLabel"`
		City             string `json:"city"`
		State            string `json:"state"`
		Geometry         *struct {
			Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
		} `json:"geometry"`
	} `json:"addresses"`
}

// Resolve returns the best match for a query, or nil when nothing matched.
// A no-match is a valid outcome, not an error.
func (c *GeocodeClient) Resolve(ctx context.Context, query string) (*models.ResolvedLocation, error) {
	values := url.Values{}
	values.Set("query", query)
	values.Set("country", "US")
	values.Set("limit", "1")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	body, err := c.fetch(ctx, reqURL)
	if err != nil {
		metrics.GeocodeAPICallsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GeocodeAPICallsTotal.WithLabelValues("ok").Inc()

	var data geocodeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal geocode response: %w", err)
	}

	for _, addr := range data.Addresses {
		if addr.Geometry == nil || len(addr.Geometry.Coordinates) < 2 {
			continue
		}
		lon, lat := addr.Geometry.Coordinates[0], addr.Geometry.Coordinates[1]
		formatted := addr.FormattedAddress
		if formatted == "" {
			formatted = addr.AddressLabel
		}
		if formatted == "" {
			formatted = "Unknown Address"
		}
		return &models.ResolvedLocation{
			ID:               fmt.Sprintf("%v,%v", lat, lon),
			FormattedAddress: formatted,
			Latitude:         lat,
			Longitude:        lon,
			City:             addr.City,
			State:            addr.State,
		}, nil
	}

	return nil, nil
}

func (c *GeocodeClient) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		result, err := c.circuit.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
			}
			req.Header.Set("Authorization", c.apiKey)

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetch geocode: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, fmt.Errorf("geocoder unavailable: status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return nil, backoff.Permanent(fmt.Errorf("fetch geocode: status %d: %s", resp.StatusCode, string(b)))
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("read body: %w", err))
			}
			return b, nil
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(fmt.Errorf("geocode circuit open: %w", err))
			}
			return err
		}
		body = result.([]byte)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
