package domain

import (
	"fmt"
	"math"
)

// ClimateEstimate is an averaged climate summary for one location.
type ClimateEstimate struct {
	AvgTemp           float64 `json:"avg_temp"`            // °C
	AvgHumidity       float64 `json:"avg_humidity"`        // fraction 0-1
	AvgWindSpeed      float64 `json:"avg_wind_speed"`      // m/s
	AvgSolarRadiation float64 `json:"avg_solar_radiation"` // W/m²
}

// ClimateRule is an additive climate adjustment applied to every point strictly
// inside its latitude/longitude box.
type ClimateRule struct {
	Name           string
	MinLat, MaxLat float64
	MinLon, MaxLon float64

	// Additive deltas.
	Temp     float64
	Humidity float64
	Solar    float64
	Wind     float64
}

// Contains reports whether the point lies strictly inside the rule's box.
func (r ClimateRule) Contains(lat, lon float64) bool {
	return lat > r.MinLat && lat < r.MaxLat && lon > r.MinLon && lon < r.MaxLon
}

// RegionalRules are the regional adjustments. Boxes overlap on purpose; every
// matching rule contributes.
var RegionalRules = []ClimateRule{
	// Deserts: hot, dry, sunny.
	{Name: "sahara", MinLat: 15, MaxLat: 35, MinLon: -15, MaxLon: 40, Temp: 8, Humidity: -0.4, Solar: 80, Wind: 1},
	{Name: "arabian-peninsula", MinLat: 12, MaxLat: 32, MinLon: 34, MaxLon: 60, Temp: 10, Humidity: -0.45, Solar: 100, Wind: 2},
	{Name: "southwest-us", MinLat: 25, MaxLat: 40, MinLon: -120, MaxLon: -100, Temp: 5, Humidity: -0.35, Solar: 60},
	{Name: "australian-outback", MinLat: -35, MaxLat: -15, MinLon: 110, MaxLon: 145, Temp: 7, Humidity: -0.38, Solar: 70},
	{Name: "atacama", MinLat: -30, MaxLat: -15, MinLon: -75, MaxLon: -65, Temp: 4, Humidity: -0.42, Solar: 85},

	// Humid and equatorial.
	{Name: "southeast-asian-monsoon", MinLat: -10, MaxLat: 30, MinLon: 90, MaxLon: 140, Temp: 2, Humidity: 0.2, Solar: -30},
	{Name: "amazon", MinLat: -10, MaxLat: 5, MinLon: -75, MaxLon: -45, Humidity: 0.25, Solar: -40},
	{Name: "equatorial-africa", MinLat: -10, MaxLat: 10, MinLon: 5, MaxLon: 40, Humidity: 0.2, Solar: -25},

	// Mediterranean.
	{Name: "mediterranean", MinLat: 30, MaxLat: 45, MinLon: -10, MaxLon: 40, Temp: 3, Humidity: -0.15, Solar: 30},
}

// CoastalBands approximate coastlines. A point in any band gets the coastal
// adjustment once.
var CoastalBands = []ClimateRule{
	{Name: "atlantic", MinLat: -40, MaxLat: 40, MinLon: -20, MaxLon: 20},
	{Name: "east-asia", MinLat: 20, MaxLat: math.Inf(1), MinLon: 100, MaxLon: 130},
	{Name: "pacific-americas", MinLat: math.Inf(-1), MaxLat: math.Inf(1), MinLon: -130, MaxLon: -110},
}

const (
	coastalHumidity = 0.1
	coastalWind     = 1.5
)

// Output ranges the downstream model was validated against.
const (
	MinEstimateTemp     = -10.0
	MaxEstimateTemp     = 45.0
	MinEstimateHumidity = 0.15
	MaxEstimateHumidity = 0.95
	MinEstimateWind     = 1.0
	MaxEstimateWind     = 10.0
	MinEstimateSolar    = 50.0
	MaxEstimateSolar    = 400.0
)

// EstimateCache stores climate estimates by coordinate key.
// Implementations must be safe for concurrent use.
type EstimateCache interface {
	Get(key string) (ClimateEstimate, bool)
	Put(key string, estimate ClimateEstimate)
}

// ClimateEstimator derives a plausible climate summary from coordinates alone.
type ClimateEstimator struct {
	cache EstimateCache
	rules []ClimateRule
}

// NewClimateEstimator creates an estimator backed by cache. A nil cache gets a fresh
// in-memory one.
func NewClimateEstimator(cache EstimateCache) *ClimateEstimator {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &ClimateEstimator{cache: cache, rules: RegionalRules}
}

// Estimate returns the climate estimate for (lat, lon). Results are memoized per
// coordinate pair rounded to two decimals.
func (e *ClimateEstimator) Estimate(lat, lon float64) ClimateEstimate {
	key := CacheKey(lat, lon)
	if est, ok := e.cache.Get(key); ok {
		return est
	}
	est := estimateClimate(lat, lon, e.rules)
	e.cache.Put(key, est)
	return est
}

// CacheKey formats the memoization key for a coordinate pair.
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func estimateClimate(lat, lon float64, rules []ClimateRule) ClimateEstimate {
	absLat := math.Abs(lat)

	est := ClimateEstimate{
		AvgTemp:           30 - 0.6*absLat,
		AvgHumidity:       0.7 - 0.005*absLat,
		AvgWindSpeed:      2 + 3*math.Abs(math.Sin(absLat*math.Pi/90)),
		AvgSolarRadiation: 250 - 2.5*absLat,
	}

	for _, r := range rules {
		if !r.Contains(lat, lon) {
			continue
		}
		est.AvgTemp += r.Temp
		est.AvgHumidity += r.Humidity
		est.AvgSolarRadiation += r.Solar
		est.AvgWindSpeed += r.Wind
	}

	if isCoastal(lat, lon) {
		est.AvgHumidity += coastalHumidity
		est.AvgWindSpeed += coastalWind
	}

	return clampEstimate(est)
}

func isCoastal(lat, lon float64) bool {
	for _, band := range CoastalBands {
		if band.Contains(lat, lon) {
			return true
		}
	}
	return false
}

func clampEstimate(est ClimateEstimate) ClimateEstimate {
	return ClimateEstimate{
		AvgTemp:           clamp(est.AvgTemp, MinEstimateTemp, MaxEstimateTemp),
		AvgHumidity:       clamp(est.AvgHumidity, MinEstimateHumidity, MaxEstimateHumidity),
		AvgWindSpeed:      clamp(est.AvgWindSpeed, MinEstimateWind, MaxEstimateWind),
		AvgSolarRadiation: clamp(est.AvgSolarRadiation, MinEstimateSolar, MaxEstimateSolar),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
