package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/evapower-etl/internal/domain"
)

// SiteTransformer implements Transformer by parsing the site request and
// running it through an Assessor.
type SiteTransformer struct {
	assessor *domain.Assessor
	logger   *slog.Logger
}

// NewTransformer creates a SiteTransformer backed by the given assessor.
func NewTransformer(assessor *domain.Assessor, logger *slog.Logger) *SiteTransformer {
	return &SiteTransformer{
		assessor: assessor,
		logger:   logger,
	}
}

func (t *SiteTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.SiteAssessment, error) {
	req, err := domain.ParseSiteRequest(raw)
	if err != nil {
		return domain.SiteAssessment{}, err
	}

	a := t.assessor.Assess(ctx, req)
	t.logger.Debug("site assessed",
		"id", a.ID,
		"site", a.Site.Name,
		"power", a.Power,
		"level", a.Category.Level,
		"source", a.Source,
	)
	return a, nil
}
