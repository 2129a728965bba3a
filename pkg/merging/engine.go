// Package merging implements the merge executor: absorbing one contact
// entity into another while preserving an audit trail.
package merging

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/Ramsey-B/aster/internal/repositories/contactentity"
	"github.com/Ramsey-B/aster/internal/repositories/identifier"
	"github.com/Ramsey-B/aster/internal/repositories/mergerecord"
	pkgcontext "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Engine executes merges between canonical contact entities
type Engine struct {
	logger      ectologger.Logger
	db          database.DB
	entities    *contactentity.Repository
	identifiers *identifier.Repository
	records     *mergerecord.Repository
	matcher     *matching.Engine
}

// NewEngine creates a new merge engine
func NewEngine(
	logger ectologger.Logger,
	db database.DB,
	entities *contactentity.Repository,
	identifiers *identifier.Repository,
	records *mergerecord.Repository,
	matcher *matching.Engine,
) *Engine {
	return &Engine{
		logger:      logger,
		db:          db,
		entities:    entities,
		identifiers: identifiers,
		records:     records,
		matcher:     matcher,
	}
}

// Merge absorbs the losing entity into the surviving one.
//
// Both entities are loaded and the match rescored before anything is written.
// The writes run in a single transaction: audit record, identifier re-point,
// survivor bookkeeping and field fill, loser deletion. Either all of it lands
// or none of it does, so identifiers can never be left pointing at a deleted
// entity.
func (e *Engine) Merge(ctx context.Context, survivingID, losingID, trigger string) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	if survivingID == losingID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "an entity cannot be merged into itself")
	}

	survivor, err := e.entities.Get(ctx, survivingID)
	if err != nil {
		return nil, err
	}
	loser, err := e.entities.Get(ctx, losingID)
	if err != nil {
		return nil, err
	}
	if survivor.Kind != loser.Kind {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "cannot merge a %s into a %s", loser.Kind, survivor.Kind)
	}

	score := e.matcher.Score(survivor, loser)
	reasons := e.matcher.Reasons(survivor, loser)

	snapshot, err := json.Marshal(loser)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to snapshot losing entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to snapshot losing entity")
	}

	txCtx, tx, err := e.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin merge transaction")
	}
	defer tx.Rollback(ctx) // no-op once committed

	if _, err := e.records.Create(txCtx, &models.MergeRecord{
		SurvivingEntityID: survivor.ID,
		MergedEntityID:    loser.ID,
		MergedSnapshot:    snapshot,
		MatchScore:        score,
		MatchReasons:      pq.StringArray(reasons),
		TriggeredBy:       trigger,
	}); err != nil {
		return nil, err
	}

	migrated, err := e.identifiers.Repoint(txCtx, loser.ID, survivor.ID)
	if err != nil {
		return nil, err
	}

	if fillEmptyFields(survivor, loser) {
		survivor, err = e.entities.UpdateFields(txCtx, survivor)
		if err != nil {
			return nil, err
		}
	}

	if err := e.entities.RecordMerge(txCtx, survivor, loser.ID); err != nil {
		return nil, err
	}

	if err := e.entities.Delete(txCtx, loser.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit merge transaction")
	}

	survivor, err = e.entities.Get(ctx, survivor.ID)
	if err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"actor":                pkgcontext.GetActor(ctx),
		"surviving_entity_id":  survivor.ID,
		"merged_entity_id":     loser.ID,
		"identifiers_migrated": migrated,
		"match_score":          score,
		"triggered_by":         trigger,
	}).Info("Merged contact entities")

	return &models.MergeResult{
		SurvivingEntity:     survivor,
		MergedEntityID:      loser.ID,
		IdentifiersMigrated: migrated,
		MatchScore:          score,
		MatchReasons:        reasons,
	}, nil
}

// fillEmptyFields copies the loser's populated identity fields into any empty
// slots on the survivor. The survivor's own values always win; reports true
// when anything changed.
func fillEmptyFields(survivor, loser *models.ContactEntity) bool {
	changed := false
	if isEmpty(survivor.Name) && !isEmpty(loser.Name) {
		survivor.Name = loser.Name
		changed = true
	}
	if isEmpty(survivor.Email) && !isEmpty(loser.Email) {
		survivor.Email = loser.Email
		changed = true
	}
	if isEmpty(survivor.Phone) && !isEmpty(loser.Phone) {
		survivor.Phone = loser.Phone
		changed = true
	}
	if isEmpty(survivor.Company) && !isEmpty(loser.Company) {
		survivor.Company = loser.Company
		changed = true
	}
	return changed
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}
