package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSite is returned for coordinates outside the valid range.
var ErrInvalidSite = errors.New("invalid site")

// Site is a geographic point to assess. Only Lat and Lon feed the model.
type Site struct {
	Name       string  `json:"name"`
	Country    string  `json:"country,omitempty"`
	Continent  string  `json:"continent,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Population int64   `json:"population,omitempty"`
}

// MeasuredPower is an externally measured power summary in W/m².
type MeasuredPower struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// SiteRequest asks for an assessment of one site. Optional inputs take precedence
// over the model: Measured overrides the computed power, Days replaces the climate
// heuristic with an observed series, and Climate replaces the estimated climate.
type SiteRequest struct {
	Site     Site                 `json:"site"`
	Measured *MeasuredPower       `json:"measured,omitempty"`
	Climate  *ClimateAverages     `json:"climate,omitempty"`
	Days     []DailyWeatherRecord `json:"days,omitempty"`
}

// Validate checks that every value is finite.
func (m MeasuredPower) Validate() error {
	if !finite(m.Mean) || !finite(m.Min) || !finite(m.Max) || !finite(m.StdDev) {
		return fmt.Errorf("%w: non-finite measured power", ErrInvalidSite)
	}
	return nil
}

// Validate checks coordinates and any supplied measurement, climate averages and
// daily records.
func (r SiteRequest) Validate() error {
	lat, lon := r.Site.Lat, r.Site.Lon
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates (%g, %g) out of range", ErrInvalidSite, lat, lon)
	}
	if r.Measured != nil {
		if err := r.Measured.Validate(); err != nil {
			return err
		}
	}
	if r.Climate != nil {
		if err := r.Climate.Validate(); err != nil {
			return err
		}
	}
	for _, d := range r.Days {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PowerSource records where an assessment's power value came from.
type PowerSource string

const (
	SourceEstimated PowerSource = "estimated" // climate averages through the model
	SourceObserved  PowerSource = "observed"  // daily series through the model
	SourceMeasured  PowerSource = "measured"  // external measurement override
)

// SiteAssessment is the full result for one site.
type SiteAssessment struct {
	ID         string          `json:"id"`
	Site       Site            `json:"site"`
	Climate    ClimateEstimate `json:"climate"`
	Power      float64         `json:"power"` // W/m²
	Category   PowerCategory   `json:"category"`
	Source     PowerSource     `json:"source"`
	Measured   *MeasuredPower  `json:"measured,omitempty"`
	Summary    *AnnualSummary  `json:"summary,omitempty"`
	AreaM2     *float64        `json:"area_m2,omitempty"` // nil when infeasible
	TargetKW   float64         `json:"target_kw"`
	AssessedAt time.Time       `json:"assessed_at"`
}

// WeatherProvider supplies observed daily weather for a location.
type WeatherProvider interface {
	DailySeries(ctx context.Context, lat, lon float64, start, end time.Time) ([]DailyWeatherRecord, error)
}
