package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/evapower-etl/internal/domain"
)

// MultiLoader fans a batch out to several loaders in order. The first failure
// stops the fanout so the batch is retried and offsets stay uncommitted.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, assessments []domain.SiteAssessment) error {
	for i, l := range m {
		if err := l.LoadBatch(ctx, assessments); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
