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

const defaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

// dailyFields is the fixed set of daily variables the viewer consumes.
const dailyFields = "temperature_2m_max,temperature_2m_min,apparent_temperature_mean,precipitation_sum,snowfall_sum,weather_code"

// ArchiveClient fetches daily historical weather from the Open-Meteo archive.
type ArchiveClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewArchiveClient() *ArchiveClient {
	return &ArchiveClient{
		baseURL: defaultArchiveURL,
		client:  httputil.NewClient(),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "archive",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// archiveResponse mirrors the archive API's parallel-array daily block.
// Numeric entries are nullable; a null means no instrument reading, which is
// distinct from zero and preserved as nil.
type archiveResponse struct {
	Daily struct {
		Time         []string   `json:"time"`
		TempMax      []*float64 `json:"temperature_2m_max"`
		TempMin      []*float64 `json:"temperature_2m_min"`
		ApparentMean []*float64 `json:"apparent_temperature_mean"`
		PrecipSum    []*float64 `json:"precipitation_sum"`
		SnowfallSum  []*float64 `json:"snowfall_sum"`
		WeatherCode  []*int     `json:"weather_code"`
	} `json:"daily"`
}

// FetchDaily returns one observation per day in [start, end] for the given
// coordinates. Transient upstream failures are retried with exponential
// backoff behind a circuit breaker; 4xx responses other than rate limits are
// permanent.
func (c *ArchiveClient) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.DailyObservation, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", lat))
	values.Set("longitude", fmt.Sprintf("%.4f", lon))
	values.Set("start_date", start.Format("2006-01-02"))
	values.Set("end_date", end.Format("2006-01-02"))
	values.Set("daily", dailyFields)
	values.Set("timezone", "auto")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	started := time.Now()
	body, err := c.fetch(ctx, reqURL)
	metrics.ArchiveAPILatency.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ArchiveAPICallsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ArchiveAPICallsTotal.WithLabelValues("ok").Inc()

	var data archiveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal archive response: %w", err)
	}

	days := make([]models.DailyObservation, 0, len(data.Daily.Time))
	for i, date := range data.Daily.Time {
		obs := models.DailyObservation{Date: date}
		obs.MaxTempC = at(data.Daily.TempMax, i)
		obs.MinTempC = at(data.Daily.TempMin, i)
		obs.ApparentTempC = at(data.Daily.ApparentMean, i)
		obs.PrecipitationMm = at(data.Daily.PrecipSum, i)
		obs.SnowfallMm = at(data.Daily.SnowfallSum, i)
		if i < len(data.Daily.WeatherCode) {
			obs.WeatherCode = data.Daily.WeatherCode[i]
		}
		days = append(days, obs)
	}
	return days, nil
}

// at guards against the parallel arrays being shorter than the time axis.
func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func (c *ArchiveClient) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		result, err := c.circuit.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetch archive: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, fmt.Errorf("archive unavailable: status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return nil, backoff.Permanent(fmt.Errorf("fetch archive: status %d: %s", resp.StatusCode, string(b)))
			}

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("read body: %w", err))
			}
			return b, nil
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(fmt.Errorf("archive circuit open: %w", err))
			}
			return err
		}
		body = result.([]byte)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 1 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
