package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// archiveLag is how far behind today observation archives are complete.
const archiveLag = 5 * 24 * time.Hour

// AssessOptions configures an Assessor.
type AssessOptions struct {
	TargetPowerKW float64
	Efficiency    float64
	LookbackDays  int
}

// Assessor turns site requests into assessments.
type Assessor struct {
	estimator *ClimateEstimator
	provider  WeatherProvider
	opts      AssessOptions
	logger    *slog.Logger
}

// NewAssessor creates an Assessor. Pass a nil provider to rely on the climate
// heuristic alone.
func NewAssessor(estimator *ClimateEstimator, provider WeatherProvider, opts AssessOptions, logger *slog.Logger) *Assessor {
	if opts.Efficiency == 0 {
		opts.Efficiency = DefaultEfficiency
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	return &Assessor{
		estimator: estimator,
		provider:  provider,
		opts:      opts,
		logger:    logger,
	}
}

// Assess evaluates one site. Provider failures fall back to the climate estimate.
func (a *Assessor) Assess(ctx context.Context, req SiteRequest) SiteAssessment {
	site := req.Site

	climate := a.estimator.Estimate(site.Lat, site.Lon)
	if req.Climate != nil {
		climate = req.Climate.WithDefaults()
	}

	out := SiteAssessment{
		ID:         generateID(site.Name, site.Lat, site.Lon),
		Site:       site,
		Climate:    climate,
		Power:      EstimatePower(climate),
		Source:     SourceEstimated,
		TargetKW:   a.opts.TargetPowerKW,
		AssessedAt: clock.Now().UTC(),
	}

	days := req.Days
	if len(days) == 0 {
		days = a.fetchSeries(ctx, site)
	}
	if summary, err := Analyze(days); err == nil {
		out.Summary = &summary
		out.Power = summary.AvgPower
		out.Source = SourceObserved
	}

	if req.Measured != nil {
		out.Measured = req.Measured
		out.Power = req.Measured.Mean
		out.Source = SourceMeasured
	}

	out.Category = ClassifyPower(out.Power)
	if area, err := RequiredArea(a.opts.TargetPowerKW, out.Power, a.opts.Efficiency); err == nil {
		out.AreaM2 = &area
	}
	return out
}

func (a *Assessor) fetchSeries(ctx context.Context, site Site) []DailyWeatherRecord {
	if a.provider == nil {
		return nil
	}
	end, start := SeriesWindow(clock.Now(), a.opts.LookbackDays)
	days, err := a.provider.DailySeries(ctx, site.Lat, site.Lon, start, end)
	if err != nil {
		a.logger.Warn("weather series unavailable, using climate estimate",
			"site", site.Name,
			"lat", site.Lat,
			"lon", site.Lon,
			"error", err,
		)
		return nil
	}

	valid := make([]DailyWeatherRecord, 0, len(days))
	for _, d := range days {
		if err := d.Validate(); err != nil {
			a.logger.Debug("dropping weather record", "site", site.Name, "error", err)
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

// SeriesWindow returns the inclusive [start, end] day range of an observed series of
// lookbackDays ending at the last complete archive day before now.
func SeriesWindow(now time.Time, lookbackDays int) (end, start time.Time) {
	end = now.UTC().Add(-archiveLag).Truncate(24 * time.Hour)
	start = end.AddDate(0, 0, -(lookbackDays - 1))
	return end, start
}

// generateID derives a stable assessment ID from the site identity so that
// reassessing a site upserts rather than duplicates.
func generateID(name string, lat, lon float64) string {
	input := fmt.Sprintf("%s|%.4f|%.4f", name, lat, lon)
	hash := sha256.Sum256([]byte(input))
	return "site-" + hex.EncodeToString(hash[:8])
}
