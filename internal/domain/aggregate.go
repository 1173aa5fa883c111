package domain

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrEmptySeries is returned when there are no daily records to aggregate.
var ErrEmptySeries = errors.New("empty weather series")

// DailyResult is the model output for one day.
type DailyResult struct {
	Date            time.Time `json:"date"`
	EvaporationRate float64   `json:"evaporation_rate"` // mm/day
	Power           float64   `json:"power"`            // W/m²
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	WindSpeed       float64   `json:"wind_speed"`
}

// AnnualSummary holds per-day results and power statistics over a series.
type AnnualSummary struct {
	DailyResults []DailyResult `json:"daily_results"`
	AvgPower     float64       `json:"avg_power"`
	MaxPower     float64       `json:"max_power"`
	MinPower     float64       `json:"min_power"`
	TotalDays    int           `json:"total_days"`
}

// AnalyzeDay runs the evaporation then power model for one record.
func AnalyzeDay(r DailyWeatherRecord) DailyResult {
	evap := EvaporationRate(r.NetRadiationMJ(), r.Temperature, r.RelativeHumidity, r.WindSpeed)
	return DailyResult{
		Date:            r.Date,
		EvaporationRate: evap,
		Power:           MaxPower(evap, r.Temperature, r.RelativeHumidity),
		Temperature:     r.Temperature,
		Humidity:        r.RelativeHumidity,
		WindSpeed:       r.WindSpeed,
	}
}

// Analyze computes one DailyResult per record, in input order, and summarizes power.
// It returns ErrEmptySeries when records is empty.
func Analyze(records []DailyWeatherRecord) (AnnualSummary, error) {
	if len(records) == 0 {
		return AnnualSummary{}, ErrEmptySeries
	}
	results := make([]DailyResult, len(records))
	for i, r := range records {
		results[i] = AnalyzeDay(r)
	}
	return summarize(results), nil
}

// AnalyzeConcurrent is Analyze spread over workers goroutines. Output order matches
// input order.
func AnalyzeConcurrent(records []DailyWeatherRecord, workers int) (AnnualSummary, error) {
	if len(records) == 0 {
		return AnnualSummary{}, ErrEmptySeries
	}
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(records))

	results := make([]DailyResult, len(records))
	idx := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = AnalyzeDay(records[i])
			}
		}()
	}
	for i := range records {
		idx <- i
	}
	close(idx)
	wg.Wait()

	return summarize(results), nil
}

func summarize(results []DailyResult) AnnualSummary {
	sum := 0.0
	maxP := math.Inf(-1)
	minP := math.Inf(1)
	for _, r := range results {
		sum += r.Power
		maxP = math.Max(maxP, r.Power)
		minP = math.Min(minP, r.Power)
	}
	return AnnualSummary{
		DailyResults: results,
		AvgPower:     sum / float64(len(results)),
		MaxPower:     maxP,
		MinPower:     minP,
		TotalDays:    len(results),
	}
}

// ErrInvalidClimate is returned for climate averages the model cannot use.
var ErrInvalidClimate = errors.New("invalid climate averages")

// Defaults for climate fields missing from ClimateAverages.
const (
	DefaultAvgTemp           = 15.0
	DefaultAvgHumidity       = 0.65
	DefaultAvgWindSpeed      = 3.0
	DefaultAvgSolarRadiation = 200.0
)

// ClimateAverages is a possibly partial climate summary. Nil fields take the
// package defaults.
type ClimateAverages struct {
	AvgTemp           *float64 `json:"avg_temp,omitempty"`
	AvgHumidity       *float64 `json:"avg_humidity,omitempty"`
	AvgWindSpeed      *float64 `json:"avg_wind_speed,omitempty"`
	AvgSolarRadiation *float64 `json:"avg_solar_radiation,omitempty"`
}

// WithDefaults resolves missing fields into a complete ClimateEstimate.
func (c ClimateAverages) WithDefaults() ClimateEstimate {
	return ClimateEstimate{
		AvgTemp:           valueOr(c.AvgTemp, DefaultAvgTemp),
		AvgHumidity:       valueOr(c.AvgHumidity, DefaultAvgHumidity),
		AvgWindSpeed:      valueOr(c.AvgWindSpeed, DefaultAvgWindSpeed),
		AvgSolarRadiation: valueOr(c.AvgSolarRadiation, DefaultAvgSolarRadiation),
	}
}

// Validate checks the supplied fields: all finite, temperature within
// [MinAirTemp, MaxAirTemp], humidity a fraction and wind speed non-negative.
func (c ClimateAverages) Validate() error {
	for _, p := range []*float64{c.AvgTemp, c.AvgHumidity, c.AvgWindSpeed, c.AvgSolarRadiation} {
		if p != nil && !finite(*p) {
			return fmt.Errorf("%w: non-finite climate value", ErrInvalidClimate)
		}
	}
	if t := c.AvgTemp; t != nil && (*t < MinAirTemp || *t > MaxAirTemp) {
		return fmt.Errorf("%w: temperature %g outside [%g,%g]", ErrInvalidClimate, *t, MinAirTemp, MaxAirTemp)
	}
	if h := c.AvgHumidity; h != nil && (*h < 0 || *h > 1) {
		return fmt.Errorf("%w: humidity %g outside [0,1]", ErrInvalidClimate, *h)
	}
	if w := c.AvgWindSpeed; w != nil && *w < 0 {
		return fmt.Errorf("%w: negative wind speed", ErrInvalidClimate)
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// EstimatePower evaluates the model once on averaged climate. Solar radiation is
// scaled by NetRadiationFactor and used directly as net radiation.
func EstimatePower(c ClimateEstimate) float64 {
	netRadiation := c.AvgSolarRadiation * NetRadiationFactor
	evap := EvaporationRate(netRadiation, c.AvgTemp, c.AvgHumidity, c.AvgWindSpeed)
	return MaxPower(evap, c.AvgTemp, c.AvgHumidity)
}

// EstimateFromClimateAverages is EstimatePower on a partial summary.
func EstimateFromClimateAverages(c ClimateAverages) float64 {
	return EstimatePower(c.WithDefaults())
}
