package matching

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Detector enumerates candidate duplicate pairs over an entity population.
// It never mutates state; callers decide what to do with the ranking.
type Detector struct {
	logger ectologger.Logger
	engine *Engine
}

// NewDetector creates a duplicate detector backed by the given match engine
func NewDetector(logger ectologger.Logger, engine *Engine) *Detector {
	return &Detector{
		logger: logger,
		engine: engine,
	}
}

// FindDuplicates compares every unordered pair of the population once and
// returns the pairs scoring at or above threshold, sorted descending by
// score. O(n^2); the pairwise scan bounds the practical population size to
// tens of thousands of entities.
func (d *Detector) FindDuplicates(ctx context.Context, population []models.ContactEntity, threshold float64) []models.CandidatePair {
	ctx, span := tracing.StartSpan(ctx, "matching.Detector.FindDuplicates")
	defer span.End()

	pairs := []models.CandidatePair{}

	for i := 0; i < len(population); i++ {
		for j := i + 1; j < len(population); j++ {
			a, b := &population[i], &population[j]
			score := d.engine.Score(a, b)
			if score < threshold {
				continue
			}
			pairs = append(pairs, models.CandidatePair{
				EntityA: a,
				EntityB: b,
				Score:   score,
				Reasons: d.engine.Reasons(a, b),
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"population": len(population),
		"threshold":  threshold,
		"candidates": len(pairs),
	}).Debug("Duplicate detection pass complete")

	return pairs
}
