package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// BatchExtractor reads up to batchSize raw site requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw site request into an assessment. Implementations must
// be safe for concurrent use.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.SiteAssessment, error)
}

// BatchLoader writes multiple assessments to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.SiteAssessment) error
}

// Config sizes the pipeline. Workers bounds how many requests of one batch are
// assessed at once; values below 1 mean one.
type Config struct {
	BatchSize int
	Workers   int
}

// Pipeline consumes site request batches, assesses them and loads the results.
// Each message is committed once it has either been loaded or rejected as
// unusable, so a load failure leaves the whole accepted part for redelivery.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	cfg         Config
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, cfg Config) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// CheckReadiness reports ready once any batch has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not assessed any sites yet")
	}
	return nil
}

// Run polls the extractor until ctx is cancelled. Extract and load failures are
// retried with exponential backoff; Run itself only returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.cfg.BatchSize, "workers", p.cfg.Workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := newBackoff(200*time.Millisecond, 5*time.Second)
	for ctx.Err() == nil {
		err := p.step(ctx)
		switch {
		case err == nil:
			retry.reset()
		case ctx.Err() != nil:
		default:
			p.logger.Error("batch failed, backing off", "error", err, "delay", retry.current)
			retry.wait(ctx)
		}
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// outcome is the result of assessing one message of a batch.
type outcome struct {
	raw        domain.RawEvent
	assessment domain.SiteAssessment
	err        error
}

// step runs one extract-assess-load cycle.
func (p *Pipeline) step(ctx context.Context) error {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	p.metrics.RequestsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	accepted := make([]outcome, 0, len(batch))
	for _, o := range p.assess(ctx, batch) {
		if o.err != nil {
			p.reject(ctx, o)
			continue
		}
		accepted = append(accepted, o)
	}
	if len(accepted) == 0 {
		return nil
	}

	assessments := make([]domain.SiteAssessment, len(accepted))
	for i, o := range accepted {
		assessments[i] = o.assessment
	}
	if err := p.loader.LoadBatch(ctx, assessments); err != nil {
		return err
	}

	for _, o := range accepted {
		p.metrics.AssessedPower.WithLabelValues(string(o.assessment.Source)).Observe(o.assessment.Power)
		p.commit(ctx, o.raw)
	}
	p.metrics.AssessmentsProduced.Add(float64(len(accepted)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

// assess transforms the batch on at most cfg.Workers goroutines. Outcomes keep
// the batch order so loaded assessments follow the source partition order.
func (p *Pipeline) assess(ctx context.Context, batch []domain.RawEvent) []outcome {
	out := make([]outcome, len(batch))
	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i := range batch {
		g.Go(func() error {
			a, err := p.transformer.Transform(ctx, batch[i])
			out[i] = outcome{raw: batch[i], assessment: a, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// reject commits a message that can never be assessed so it is not redelivered.
func (p *Pipeline) reject(ctx context.Context, o outcome) {
	p.logger.Warn("site request rejected, skipping message",
		"error", o.err,
		"topic", o.raw.Topic,
		"partition", o.raw.Partition,
		"offset", o.raw.Offset,
	)
	p.metrics.TransformErrors.Inc()
	p.commit(ctx, o.raw)
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
