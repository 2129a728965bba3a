// Package processor runs batch passes over the canonical population. The
// auto-merge pass finds high-confidence duplicate pairs and merges them
// without operator involvement.
package processor

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/merging"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Report summarizes one auto-merge pass.
type Report struct {
	Merged     []models.AutoMergeOutcome `json:"merged"`
	Examined   int                       `json:"examined"`
	Skipped    int                       `json:"skipped"`
	CapReached bool                      `json:"cap_reached"`
	DryRun     bool                      `json:"dry_run"`
}

// EntityLister supplies the canonical population for a pass.
type EntityLister interface {
	ListByKind(ctx context.Context, kind models.EntityKind) ([]models.ContactEntity, error)
}

// AutoMerge walks the population and merges pairs scoring at or above its
// threshold
type AutoMerge struct {
	logger    ectologger.Logger
	db        database.DB
	entities  EntityLister
	detector  *matching.Detector
	merger    *merging.Engine
	threshold float64
	maxMerges int
}

// NewAutoMerge creates an auto-merge processor. threshold is the minimum
// score for an unattended merge; maxMerges caps how many merges one pass may
// perform.
func NewAutoMerge(
	logger ectologger.Logger,
	db database.DB,
	entities EntityLister,
	detector *matching.Detector,
	merger *merging.Engine,
	threshold float64,
	maxMerges int,
) *AutoMerge {
	return &AutoMerge{
		logger:    logger,
		db:        db,
		entities:  entities,
		detector:  detector,
		merger:    merger,
		threshold: threshold,
		maxMerges: maxMerges,
	}
}

// Run executes one auto-merge pass over both entity kinds.
//
// Candidate pairs come back ordered by descending score, so the most
// confident merges land first when the cap cuts the pass short. Once an
// entity has lost a merge it no longer exists, so any later pair touching it
// is skipped rather than re-resolved; the next pass picks up whatever new
// pairs the merges exposed. A session advisory lock keeps two passes from
// running concurrently against the same database.
func (p *AutoMerge) Run(ctx context.Context, dryRun bool) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.AutoMerge.Run")
	defer span.End()

	if !dryRun {
		lock, err := database.TryAdvisoryLock(ctx, p.db, database.AutoMergeLockKey)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to acquire auto-merge lock")
		}
		if lock == nil {
			return nil, httperror.NewHTTPError(http.StatusConflict, "another auto-merge pass is already running")
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				p.logger.WithContext(ctx).WithError(err).Warn("Failed to release auto-merge lock")
			}
		}()
	}

	report := &Report{Merged: []models.AutoMergeOutcome{}, DryRun: dryRun}

	for _, kind := range []models.EntityKind{models.EntityKindPerson, models.EntityKindOrganization} {
		if report.CapReached {
			break
		}
		if err := p.runKind(ctx, kind, dryRun, report); err != nil {
			return nil, err
		}
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"merged":      len(report.Merged),
		"examined":    report.Examined,
		"skipped":     report.Skipped,
		"cap_reached": report.CapReached,
		"dry_run":     dryRun,
	}).Info("Auto-merge pass complete")

	return report, nil
}

func (p *AutoMerge) runKind(ctx context.Context, kind models.EntityKind, dryRun bool, report *Report) error {
	population, err := p.entities.ListByKind(ctx, kind)
	if err != nil {
		return err
	}

	pairs := p.detector.FindDuplicates(ctx, population, p.threshold)
	report.Examined += len(pairs)

	consumed := map[string]bool{}
	for _, pair := range pairs {
		if len(report.Merged) >= p.maxMerges {
			report.CapReached = true
			return nil
		}
		if consumed[pair.EntityA.ID] || consumed[pair.EntityB.ID] {
			report.Skipped++
			continue
		}

		// Each entity participates in at most one merge per pass; scores for
		// later pairs would be stale once a merge changes the survivor.
		survivor, loser := pickSurvivor(pair.EntityA, pair.EntityB)
		consumed[survivor.ID] = true
		consumed[loser.ID] = true

		outcome := models.AutoMergeOutcome{
			SurvivorID: survivor.ID,
			LoserID:    loser.ID,
			Score:      pair.Score,
			Reasons:    pair.Reasons,
		}

		if !dryRun {
			if _, err := p.merger.Merge(ctx, survivor.ID, loser.ID, models.MergeTriggerAutoMerge); err != nil {
				return err
			}
		}

		report.Merged = append(report.Merged, outcome)
	}

	return nil
}

// pickSurvivor chooses which side of a pair survives: the entity with more
// populated identity fields, falling back to the one seen first.
func pickSurvivor(a, b *models.ContactEntity) (survivor, loser *models.ContactEntity) {
	fa, fb := a.FilledFieldCount(), b.FilledFieldCount()
	if fa > fb {
		return a, b
	}
	if fb > fa {
		return b, a
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return b, a
	}
	return a, b
}
