package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRecord is returned when a daily record cannot feed the model.
var ErrInvalidRecord = errors.New("invalid weather record")

// Air temperatures outside this range in °C are rejected. Far below it the
// saturation vapour pressure formula diverges.
const (
	MinAirTemp = -100.0
	MaxAirTemp = 100.0
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DailyWeatherRecord is one observed or estimated day. Radiation is given either as
// net radiation or as gross shortwave radiation, both in MJ/(m²·day). In JSON the
// date may be a calendar date (2006-01-02) or an RFC 3339 timestamp.
type DailyWeatherRecord struct {
	Date               time.Time `json:"date"`
	NetRadiation       *float64  `json:"net_radiation,omitempty"`
	ShortwaveRadiation *float64  `json:"shortwave_radiation,omitempty"`
	Temperature        float64   `json:"temperature"`       // °C
	RelativeHumidity   float64   `json:"relative_humidity"` // fraction 0-1
	WindSpeed          float64   `json:"wind_speed"`        // m/s
}

// UnmarshalJSON decodes a record, accepting either date form.
func (r *DailyWeatherRecord) UnmarshalJSON(data []byte) error {
	type plain DailyWeatherRecord
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := parseRecordDate(aux.Date)
	if err != nil {
		return err
	}
	r.Date = date
	return nil
}

func parseRecordDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is neither YYYY-MM-DD nor RFC 3339", ErrInvalidRecord, s)
	}
	return t, nil
}

// NetRadiationMJ returns the record's net radiation, deriving it from gross
// shortwave radiation when no net value is present.
func (r DailyWeatherRecord) NetRadiationMJ() float64 {
	if r.NetRadiation != nil {
		return *r.NetRadiation
	}
	if r.ShortwaveRadiation != nil {
		return *r.ShortwaveRadiation * NetRadiationFactor
	}
	return 0
}

// Validate checks that the record has radiation and finite inputs with humidity as a
// fraction and temperature within [MinAirTemp, MaxAirTemp].
func (r DailyWeatherRecord) Validate() error {
	if r.NetRadiation == nil && r.ShortwaveRadiation == nil {
		return fmt.Errorf("%w: %s: no radiation value", ErrInvalidRecord, r.Date.Format(time.DateOnly))
	}
	for _, v := range []float64{r.NetRadiationMJ(), r.Temperature, r.RelativeHumidity, r.WindSpeed} {
		if !finite(v) {
			return fmt.Errorf("%w: %s: non-finite value", ErrInvalidRecord, r.Date.Format(time.DateOnly))
		}
	}
	if r.Temperature < MinAirTemp || r.Temperature > MaxAirTemp {
		return fmt.Errorf("%w: %s: temperature %g outside [%g,%g]", ErrInvalidRecord, r.Date.Format(time.DateOnly), r.Temperature, MinAirTemp, MaxAirTemp)
	}
	if r.RelativeHumidity < 0 || r.RelativeHumidity > 1 {
		return fmt.Errorf("%w: %s: relative humidity %g outside [0,1]", ErrInvalidRecord, r.Date.Format(time.DateOnly), r.RelativeHumidity)
	}
	if r.WindSpeed < 0 {
		return fmt.Errorf("%w: %s: negative wind speed", ErrInvalidRecord, r.Date.Format(time.DateOnly))
	}
	return nil
}
