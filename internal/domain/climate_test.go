package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	inner *MemoryCache
	hits  int
	miss  int
	puts  int
}

func (c *countingCache) Get(key string) (ClimateEstimate, bool) {
	est, ok := c.inner.Get(key)
	if ok {
		c.hits++
	} else {
		c.miss++
	}
	return est, ok
}

func (c *countingCache) Put(key string, est ClimateEstimate) {
	c.puts++
	c.inner.Put(key, est)
}

func TestClimateEstimator_Sahara(t *testing.T) {
	est := NewClimateEstimator(nil).Estimate(23, 25)

	// Baseline 16.2 °C plus the desert adjustment.
	assert.InDelta(t, 24.2, est.AvgTemp, 1e-9)
	assert.InDelta(t, 0.185, est.AvgHumidity, 1e-9)
	assert.InDelta(t, 272.5, est.AvgSolarRadiation, 1e-9)
	assert.InDelta(t, 5.158, est.AvgWindSpeed, 1e-3)

	power := EstimatePower(est)
	assert.GreaterOrEqual(t, ClassifyPower(power).Level.Rank(), LevelGood.Rank())
}

func TestClimateEstimator_Baselines(t *testing.T) {
	est := NewClimateEstimator(nil).Estimate(0, 0)
	// Gulf of Guinea: baseline plus the Atlantic coastal band.
	assert.Equal(t, 30.0, est.AvgTemp)
	assert.InDelta(t, 0.8, est.AvgHumidity, 1e-9)
	assert.InDelta(t, 3.5, est.AvgWindSpeed, 1e-9)
	assert.Equal(t, 250.0, est.AvgSolarRadiation)
}

func TestClimateEstimator_OverlappingRulesAccumulate(t *testing.T) {
	// Beirut sits in both the Sahara and Mediterranean boxes.
	est := estimateClimate(33.89, 35.5, RegionalRules)
	assert.InDelta(t, 30-0.6*33.89+8+3, est.AvgTemp, 1e-9)
	assert.InDelta(t, 250-2.5*33.89+80+30, est.AvgSolarRadiation, 1e-9)
	assert.Equal(t, MinEstimateHumidity, est.AvgHumidity)
}

func TestClimateEstimator_RuleOrderIrrelevant(t *testing.T) {
	reversed := make([]ClimateRule, len(RegionalRules))
	for i, r := range RegionalRules {
		reversed[len(RegionalRules)-1-i] = r
	}
	for _, p := range [][2]float64{{33.89, 35.5}, {24, 45}, {5, 120}, {-25, 130}} {
		a := estimateClimate(p[0], p[1], RegionalRules)
		b := estimateClimate(p[0], p[1], reversed)
		assert.InDelta(t, a.AvgTemp, b.AvgTemp, 1e-9)
		assert.InDelta(t, a.AvgHumidity, b.AvgHumidity, 1e-9)
		assert.InDelta(t, a.AvgSolarRadiation, b.AvgSolarRadiation, 1e-9)
		assert.InDelta(t, a.AvgWindSpeed, b.AvgWindSpeed, 1e-9)
	}
}

func TestClimateEstimator_Poles(t *testing.T) {
	est := NewClimateEstimator(nil).Estimate(90, 0)
	assert.Equal(t, MinEstimateTemp, est.AvgTemp)
	assert.Equal(t, MinEstimateSolar, est.AvgSolarRadiation)
}

func TestClimateEstimator_Coastal(t *testing.T) {
	inland := estimateClimate(45, 60, RegionalRules)
	assert.False(t, isCoastal(45, 60))

	assert.True(t, isCoastal(40, -120))
	assert.True(t, isCoastal(35, 120))
	assert.True(t, isCoastal(-30, 10))
	assert.False(t, isCoastal(10, 120), "east Asian band starts north of 20°")
	assert.False(t, isCoastal(40, 0), "Atlantic band is open at 40°")

	// Same latitude, coastal Pacific longitude.
	coastal := estimateClimate(45, -120, nil)
	base := estimateClimate(45, 60, nil)
	assert.InDelta(t, base.AvgHumidity+0.1, coastal.AvgHumidity, 1e-9)
	assert.InDelta(t, base.AvgWindSpeed+1.5, coastal.AvgWindSpeed, 1e-9)
	assert.Equal(t, inland, base)
}

func TestClimateEstimator_ClampedEverywhere(t *testing.T) {
	e := NewClimateEstimator(nil)
	for lat := -90.0; lat <= 90; lat += 2.5 {
		for lon := -180.0; lon <= 180; lon += 2.5 {
			est := e.Estimate(lat, lon)
			assert.True(t, est.AvgTemp >= MinEstimateTemp && est.AvgTemp <= MaxEstimateTemp, "temp at %g,%g", lat, lon)
			assert.True(t, est.AvgHumidity >= MinEstimateHumidity && est.AvgHumidity <= MaxEstimateHumidity, "humidity at %g,%g", lat, lon)
			assert.True(t, est.AvgWindSpeed >= MinEstimateWind && est.AvgWindSpeed <= MaxEstimateWind, "wind at %g,%g", lat, lon)
			assert.True(t, est.AvgSolarRadiation >= MinEstimateSolar && est.AvgSolarRadiation <= MaxEstimateSolar, "solar at %g,%g", lat, lon)
		}
	}
}

func TestClimateEstimator_OutOfRangeInputsClamp(t *testing.T) {
	est := NewClimateEstimator(nil).Estimate(500, -1000)
	assert.Equal(t, MinEstimateTemp, est.AvgTemp)
	assert.Equal(t, MinEstimateSolar, est.AvgSolarRadiation)
}

func TestClimateEstimator_CacheHitMiss(t *testing.T) {
	cache := &countingCache{inner: NewMemoryCache()}
	e := NewClimateEstimator(cache)

	first := e.Estimate(23.001, 25.004)
	assert.Equal(t, 1, cache.miss)
	assert.Equal(t, 1, cache.puts)

	// Rounds to the same two-decimal key.
	second := e.Estimate(23.004, 24.996)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, first, second)

	e.Estimate(23.02, 25)
	assert.Equal(t, 2, cache.miss)
	assert.Equal(t, 2, cache.inner.Len())
}

func TestClimateEstimator_FreshCachesAreIsolated(t *testing.T) {
	a := NewMemoryCache()
	b := NewMemoryCache()
	NewClimateEstimator(a).Estimate(10, 10)
	assert.Equal(t, 1, a.Len())
	assert.Zero(t, b.Len())
}

func TestClimateEstimator_Concurrent(t *testing.T) {
	cache := NewMemoryCache()
	e := NewClimateEstimator(cache)
	want := estimateClimate(12.34, 56.78, RegionalRules)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, e.Estimate(12.34, 56.78))
		}()
	}
	wg.Wait()
	require.Equal(t, 1, cache.Len())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "23.00,25.00", CacheKey(23.001, 24.999))
	assert.Equal(t, "-33.87,151.21", CacheKey(-33.8688, 151.2093))
}
