package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
)

// DefaultBaseURL is the Open-Meteo historical weather archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

const (
	dateLayout  = "2006-01-02"
	dailyFields = "temperature_2m_mean,relative_humidity_2m_mean,wind_speed_10m_mean,shortwave_radiation_sum"
)

// ErrNoData is returned when the archive has no usable days for the window.
var ErrNoData = errors.New("no weather data")

// Client implements domain.WeatherProvider using the Open-Meteo archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an archive client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// DailySeries fetches daily means for [start, end] at (lat, lon). Days with any
// missing field are skipped. Humidity is converted from percent to a fraction.
func (c *Client) DailySeries(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.DailyWeatherRecord, error) {
	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', 4, 64)},
		"start_date":      {start.Format(dateLayout)},
		"end_date":        {end.Format(dateLayout)},
		"daily":           {dailyFields},
		"wind_speed_unit": {"ms"},
		"timezone":        {"auto"},
	}

	began := time.Now()
	days, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.WeatherAPIDuration.Observe(time.Since(began).Seconds())

	switch {
	case errors.Is(err, ErrNoData):
		c.metrics.WeatherRequests.WithLabelValues("empty").Inc()
	case err != nil:
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
	default:
		c.metrics.WeatherRequests.WithLabelValues("success").Inc()
		c.logger.Debug("weather series fetched", "lat", lat, "lon", lon, "days", len(days))
	}
	return days, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.DailyWeatherRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var archive response
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	days := archive.Daily.records()
	if len(days) == 0 {
		return nil, ErrNoData
	}
	return days, nil
}

// Open-Meteo API response types.

type response struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Daily     daily   `json:"daily"`
}

type daily struct {
	Time        []string   `json:"time"`
	Temperature []*float64 `json:"temperature_2m_mean"`       // °C
	Humidity    []*float64 `json:"relative_humidity_2m_mean"` // %
	WindSpeed   []*float64 `json:"wind_speed_10m_mean"`       // m/s
	Shortwave   []*float64 `json:"shortwave_radiation_sum"`   // MJ/m²
}

func (d daily) records() []domain.DailyWeatherRecord {
	out := make([]domain.DailyWeatherRecord, 0, len(d.Time))
	for i, day := range d.Time {
		temp, rh, wind, sw := at(d.Temperature, i), at(d.Humidity, i), at(d.WindSpeed, i), at(d.Shortwave, i)
		if temp == nil || rh == nil || wind == nil || sw == nil {
			continue
		}
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			continue
		}
		shortwave := *sw
		out = append(out, domain.DailyWeatherRecord{
			Date:               date,
			ShortwaveRadiation: &shortwave,
			Temperature:        *temp,
			RelativeHumidity:   *rh / 100,
			WindSpeed:          *wind,
		})
	}
	return out
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
