// Package engine is the single entry point for scoring a participant's
// badges: classify, dedupe, score and, for facilitators, evaluate milestones.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/arcadepoints/internal/domain/catalog"
	"github.com/okian/arcadepoints/internal/domain/classify"
	"github.com/okian/arcadepoints/internal/domain/dedupe"
	"github.com/okian/arcadepoints/internal/domain/milestone"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/policy"
	"github.com/okian/arcadepoints/internal/domain/scoring"
	"github.com/okian/arcadepoints/pkg/logger"
	"github.com/okian/arcadepoints/pkg/metrics"
)

// Engine computes results from raw badge lists. Policy and catalog are
// copied at construction and never mutated, so an Engine is safe for
// concurrent use.
type Engine struct {
	policy      policy.Policy
	catalogSize int
	classifier  *classify.Classifier
	calculator  *scoring.Calculator
	milestones  *milestone.Evaluator
	logger      logger.Logger
	metrics     bool
}

// New validates p and cat and builds an engine from copies of them.
func New(p policy.Policy, cat catalog.Catalog, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	p = p.Clone()
	e := &Engine{
		policy:      p,
		catalogSize: cat.Size(),
		classifier:  classify.New(cat.Clone(), p.Fuzzy),
		calculator:  scoring.NewCalculator(p),
		milestones:  milestone.NewEvaluator(p),
		logger:      logger.Nop(),
		metrics:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Compute scores badges. Categories are always derived from the badge name.
//
// In facilitator mode the milestone is evaluated over window, or over the
// configured facilitator window when window is nil, and its bonus is added
// to the total. Outside facilitator mode Result.Milestone is nil.
// Malformed badges are dropped and counted; Compute never fails.
func (e *Engine) Compute(ctx context.Context, badges []model.Badge, facilitator bool, window *model.Window) model.Result {
	start := time.Now()

	classified := e.classifier.ClassifyAll(badges)
	report := dedupe.Run(classified)
	details, breakdown := e.calculator.Details(report.Kept)

	res := model.Result{
		Breakdown: breakdown,
		Badges:    details,
		Dropped:   report.Malformed,
	}

	if facilitator {
		w := e.policy.FacilitatorWindow
		if window != nil {
			w = *window
		}
		st := e.milestones.ForCounts(milestone.Count(report.Kept, w))
		res.Milestone = &st
		res.Breakdown.MilestonePoints = st.BonusPoints
		res.Breakdown.Total += st.BonusPoints
	}

	elapsed := time.Since(start)
	beforeStart := 0
	for _, d := range details {
		if !d.Counted {
			beforeStart++
		}
	}
	if e.metrics {
		e.record(classified, report, beforeStart, res, facilitator, elapsed)
	}

	fields := []logger.Field{
		logger.Int("badges", len(badges)),
		logger.Int("kept", len(report.Kept)),
		logger.Int("malformed", report.Malformed),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("before_start", beforeStart),
		logger.Float64("total", res.Breakdown.Total),
		logger.Bool("facilitator", facilitator),
		logger.Duration("took", elapsed),
	}
	if res.Milestone != nil {
		fields = append(fields, logger.Int("tier", res.Milestone.Tier))
	}
	e.logger.Debug(ctx, "computed score", fields...)

	return res
}

func (e *Engine) record(classified []model.ClassifiedBadge, report dedupe.Report, beforeStart int, res model.Result, facilitator bool, elapsed time.Duration) {
	for _, b := range classified {
		metrics.RecordBadgeClassified(string(b.Category))
	}
	metrics.RecordBadgesDropped(metrics.DropMalformedDate, report.Malformed)
	metrics.RecordBadgesDropped(metrics.DropDuplicate, report.Duplicates)
	metrics.RecordBadgesDropped(metrics.DropBeforeStart, beforeStart)
	metrics.RecordComputation(facilitator, float64(elapsed.Microseconds())/1000)
	if res.Milestone != nil {
		metrics.RecordMilestoneTier(res.Milestone.Tier)
	}
}

// Classify returns the category for a single raw badge name.
func (e *Engine) Classify(name string) model.Category {
	return e.classifier.Classify(name)
}

// CatalogSize is the number of catalog entries the classifier was built from.
func (e *Engine) CatalogSize() int {
	return e.catalogSize
}

// Policy returns a copy of the active policy.
func (e *Engine) Policy() policy.Policy {
	return e.policy.Clone()
}
