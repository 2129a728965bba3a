// Package resolution maps raw source records onto canonical contact
// entities: attach to a confident match or mint a new entity.
package resolution

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/aster/internal/repositories/contactentity"
	"github.com/Ramsey-B/aster/internal/repositories/identifier"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Service resolves incoming records to canonical entities
type Service struct {
	logger          ectologger.Logger
	db              database.DB
	entities        *contactentity.Repository
	identifiers     *identifier.Repository
	matcher         *matching.Engine
	attachThreshold float64
	validate        *validator.Validate
}

// NewService creates a resolution service. attachThreshold is the minimum
// match score at which an unseen record attaches to an existing entity
// instead of creating a new one.
func NewService(
	logger ectologger.Logger,
	db database.DB,
	entities *contactentity.Repository,
	identifiers *identifier.Repository,
	matcher *matching.Engine,
	attachThreshold float64,
) *Service {
	return &Service{
		logger:          logger,
		db:              db,
		entities:        entities,
		identifiers:     identifiers,
		matcher:         matcher,
		attachThreshold: attachThreshold,
		validate:        validator.New(),
	}
}

// Resolve maps one raw record to a canonical entity.
//
// A record that has been seen before (same source system and record id)
// resolves to whatever entity its identifier points at today, which may
// differ from the original target if merges have happened since. An unseen
// record is scored against the existing population of its kind: a match at
// or above the attach threshold joins that entity, anything less creates a
// fresh one. The entity creation and identifier insert share a transaction,
// and the identifier upsert is atomic, so a concurrent resolve of the same
// record cannot produce two entities.
func (s *Service) Resolve(ctx context.Context, req *models.ResolveRequest) (*models.ResolveResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Resolve")
	defer span.End()

	candidate, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	// Fast path: the record has been resolved before.
	existing, err := s.identifiers.Find(ctx, req.SourceSystem, req.SourceRecordID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.ResolveResult{
			EntityID:     existing.EntityID,
			IdentifierID: existing.ID,
			AlreadyKnown: true,
		}, nil
	}

	target, score, reason, err := s.pickTarget(ctx, candidate)
	if err != nil {
		return nil, err
	}

	txCtx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin resolve transaction")
	}
	defer tx.Rollback(ctx) // no-op once committed

	created := false
	if target == nil {
		target, err = s.entities.Create(txCtx, candidate)
		if err != nil {
			return nil, err
		}
		created = true
	}

	ident, inserted, err := s.identifiers.ResolveOrCreate(txCtx, &models.Identifier{
		SourceSystem:   req.SourceSystem,
		SourceRecordID: req.SourceRecordID,
		EntityID:       target.ID,
		RawName:        optional(req.Name),
		RawEmail:       optional(req.Email),
		RawPhone:       optional(req.Phone),
		RawCompany:     optional(req.Company),
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		// Another resolve of the same record won the race. Abandon our work
		// (rolling back any entity we created) and defer to the winner.
		if err := tx.Rollback(ctx); err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to roll back resolve transaction")
		}
		return &models.ResolveResult{
			EntityID:     ident.EntityID,
			IdentifierID: ident.ID,
			AlreadyKnown: true,
		}, nil
	}

	if !created {
		if refineFields(target, candidate) {
			if _, err := s.entities.UpdateFields(txCtx, target); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit resolve transaction")
	}

	result := &models.ResolveResult{
		EntityID:      target.ID,
		IdentifierID:  ident.ID,
		CreatedEntity: created,
	}
	if !created {
		result.AttachedScore = score
		result.AttachedReason = reason
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source_system":    req.SourceSystem,
		"source_record_id": req.SourceRecordID,
		"entity_id":        target.ID,
		"created_entity":   created,
	}).Info("Resolved record")

	return result, nil
}

// Preview reports what Resolve would do for a record without writing
// anything. Used by the dry-run path of the resolve command.
func (s *Service) Preview(ctx context.Context, req *models.ResolveRequest) (*models.ResolveResult, error) {
	ctx, span := tracing.StartSpan(ctx, "resolution.Service.Preview")
	defer span.End()

	candidate, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.identifiers.Find(ctx, req.SourceSystem, req.SourceRecordID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &models.ResolveResult{
			EntityID:     existing.EntityID,
			IdentifierID: existing.ID,
			AlreadyKnown: true,
		}, nil
	}

	target, score, reason, err := s.pickTarget(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return &models.ResolveResult{CreatedEntity: true}, nil
	}
	return &models.ResolveResult{
		EntityID:       target.ID,
		AttachedScore:  score,
		AttachedReason: reason,
	}, nil
}

// prepare validates the request and builds the normalized candidate entity
// used for scoring and, when no match is found, for creation.
func (s *Service) prepare(req *models.ResolveRequest) (*models.ContactEntity, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid resolve request: %s", err.Error())
	}
	if req.Name == "" && req.Email == "" && req.Phone == "" && req.Company == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "resolve request must carry at least one identity field")
	}

	kind := req.Kind
	if kind == "" {
		kind = models.EntityKindPerson
	}
	if kind != models.EntityKindPerson && kind != models.EntityKindOrganization {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity kind %q", kind)
	}

	return &models.ContactEntity{
		Kind:    kind,
		Name:    optional(normalizers.NormalizeName(req.Name)),
		Email:   optional(normalizers.NormalizeEmail(req.Email)),
		Phone:   optional(normalizers.NormalizePhone(req.Phone)),
		Company: optional(normalizers.NormalizeName(req.Company)),
	}, nil
}

// pickTarget scores the candidate against the live population of its kind
// and returns the best entity at or above the attach threshold, or nil when
// a new entity should be created.
func (s *Service) pickTarget(ctx context.Context, candidate *models.ContactEntity) (*models.ContactEntity, float64, string, error) {
	population, err := s.entities.ListByKind(ctx, candidate.Kind)
	if err != nil {
		return nil, 0, "", err
	}

	var best *models.ContactEntity
	var bestScore float64
	for i := range population {
		score := s.matcher.Score(candidate, &population[i])
		if score > bestScore {
			best = &population[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < s.attachThreshold {
		return nil, 0, "", nil
	}

	reason := strings.Join(s.matcher.Reasons(candidate, best), ",")
	return best, bestScore, reason, nil
}

// refineFields copies the candidate's populated fields into empty slots on
// the target entity. Existing values are never overwritten.
func refineFields(target, candidate *models.ContactEntity) bool {
	changed := false
	if isEmpty(target.Name) && !isEmpty(candidate.Name) {
		target.Name = candidate.Name
		changed = true
	}
	if isEmpty(target.Email) && !isEmpty(candidate.Email) {
		target.Email = candidate.Email
		changed = true
	}
	if isEmpty(target.Phone) && !isEmpty(candidate.Phone) {
		target.Phone = candidate.Phone
		changed = true
	}
	if isEmpty(target.Company) && !isEmpty(candidate.Company) {
		target.Company = candidate.Company
		changed = true
	}
	return changed
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
