//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo archive API.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_DailySeries_Sahara(t *testing.T) {
	c := NewClient(DefaultBaseURL, 15*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	days, err := c.DailySeries(context.Background(), 23, 25, start, end)
	require.NoError(t, err)
	require.Len(t, days, 30)

	summary, err := domain.Analyze(days)
	require.NoError(t, err)
	assert.Greater(t, summary.AvgPower, 200.0, "June in the eastern Sahara should be excellent")
}
