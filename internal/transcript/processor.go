package transcript

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/scribeclean/internal/observe"
	"github.com/MrWong99/scribeclean/internal/transcript/disfluency"
	"github.com/MrWong99/scribeclean/internal/transcript/phonetic"
	"github.com/MrWong99/scribeclean/internal/transcript/vocab"
)

const defaultThreshold = 0.18

// PipelineOption is a functional option for configuring a [Pipeline].
type PipelineOption func(*Pipeline)

// WithStages sets which stages run and in what order. An empty list disables
// every stage, turning the pipeline into an identity transform.
func WithStages(stages ...Stage) PipelineOption {
	return func(p *Pipeline) {
		p.stages = slices.Clone(stages)
	}
}

// WithThreshold sets the vocabulary acceptance threshold. Default: 0.18.
func WithThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) {
		p.threshold = threshold
	}
}

// WithMetrics records pass latencies and counts to m.
func WithMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline is the default [Processor]. It is immutable after construction
// and safe for concurrent use.
type Pipeline struct {
	stages    []Stage
	threshold float64
	metrics   *observe.Metrics
}

var _ Processor = (*Pipeline)(nil)

// NewPipeline returns a [Pipeline] running [DefaultStages] with the default
// threshold unless overridden by opts.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		stages:    DefaultStages(),
		threshold: defaultThreshold,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Stages returns a copy of the configured stage order.
func (p *Pipeline) Stages() []Stage { return slices.Clone(p.stages) }

// Threshold returns the vocabulary acceptance threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Process implements [Processor].
func (p *Pipeline) Process(ctx context.Context, text string, words []string) (*Result, error) {
	return p.process(ctx, text, vocab.New(words, phonetic.WithThreshold(p.threshold)))
}

// ProcessBatch processes texts concurrently with at most limit workers
// (limit <= 0 means one per text) and returns results in input order. The
// vocabulary is prepared once for the whole batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, texts []string, words []string, limit int) ([]*Result, error) {
	corrector := vocab.New(words, phonetic.WithThreshold(p.threshold))
	results := make([]*Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, text := range texts {
		g.Go(func() error {
			res, err := p.process(gctx, text, corrector)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) process(ctx context.Context, text string, corrector *vocab.Corrector) (*Result, error) {
	ctx, span := observe.StartSpan(ctx, "transcript.process")
	defer span.End()

	res := &Result{
		Original:    text,
		Text:        text,
		Corrections: []Correction{},
	}

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		switch stage {
		case StageVocabulary:
			out, subs := corrector.Apply(res.Text)
			res.Text = out
			for _, s := range subs {
				res.Corrections = append(res.Corrections, Correction{
					Index:     s.Index,
					Original:  s.Original,
					Corrected: s.Replacement,
					Word:      s.Word,
					Score:     s.Score,
				})
			}
			if p.metrics != nil {
				p.metrics.RecordCorrection(ctx, time.Since(start), len(subs))
			}
		case StageFilter:
			fr := disfluency.Filter(res.Text)
			res.Text = fr.Text
			res.FillersRemoved += fr.FillersRemoved
			res.StuttersCollapsed += fr.StuttersCollapsed
			if p.metrics != nil {
				p.metrics.RecordFilter(ctx, time.Since(start), fr.FillersRemoved, fr.StuttersCollapsed)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("transcript.corrections", len(res.Corrections)),
		attribute.Int("transcript.fillers_removed", res.FillersRemoved),
		attribute.Int("transcript.stutters_collapsed", res.StuttersCollapsed),
	)
	if len(res.Corrections) > 0 {
		observe.Logger(ctx).Debug("transcript corrected", "corrections", len(res.Corrections))
	}
	return res, nil
}
