package contactentity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

const entityColumns = "id, kind, name, email, phone, company, merged_from, merge_count, last_merged_at, created_at, updated_at, version"

// Repository handles canonical contact entity persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact entity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new canonical entity
func (r *Repository) Create(ctx context.Context, entity *models.ContactEntity) (*models.ContactEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.Create")
	defer span.End()

	if entity.ID == "" {
		entity.ID = uuid.New().String()
	}
	if entity.Kind == "" {
		entity.Kind = models.EntityKindPerson
	}
	if entity.MergedFrom == nil {
		entity.MergedFrom = []string{}
	}
	entity.CreatedAt = time.Now().UTC()
	entity.UpdatedAt = entity.CreatedAt
	entity.Version = 1

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("contact_entities")
	sb.Cols("id", "kind", "name", "email", "phone", "company", "merged_from", "merge_count", "last_merged_at", "created_at", "updated_at", "version")
	sb.Values(entity.ID, entity.Kind, entity.Name, entity.Email, entity.Phone, entity.Company, entity.MergedFrom, entity.MergeCount, entity.LastMergedAt, entity.CreatedAt, entity.UpdatedAt, entity.Version)

	query, args := sb.Build()
	if _, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create contact entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create contact entity")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": entity.ID, "kind": entity.Kind}).Info("Created contact entity")
	return entity, nil
}

// Get retrieves a canonical entity by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ContactEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(entityColumns)
	sb.From("contact_entities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var entity models.ContactEntity
	if err := database.ActiveQueryer(ctx, r.db).GetContext(ctx, &entity, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("contact entity %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get contact entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact entity")
	}

	return &entity, nil
}

// ListByKind returns the full population of one entity kind, oldest first.
// The duplicate detector scans this pairwise, so ordering must be stable.
func (r *Repository) ListByKind(ctx context.Context, kind models.EntityKind) ([]models.ContactEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.ListByKind")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(entityColumns)
	sb.From("contact_entities")
	sb.Where(sb.Equal("kind", kind))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var entities []models.ContactEntity
	if err := database.ActiveQueryer(ctx, r.db).SelectContext(ctx, &entities, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list contact entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contact entities")
	}

	return entities, nil
}

// UpdateFields writes the identity fields of an entity with an optimistic
// version check. Returns 409 when a concurrent writer got there first.
func (r *Repository) UpdateFields(ctx context.Context, entity *models.ContactEntity) (*models.ContactEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.UpdateFields")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("contact_entities")
	sb.Set(
		sb.Assign("name", entity.Name),
		sb.Assign("email", entity.Email),
		sb.Assign("phone", entity.Phone),
		sb.Assign("company", entity.Company),
		sb.Assign("updated_at", now),
		sb.Add("version", 1),
	)
	sb.Where(
		sb.Equal("id", entity.ID),
		sb.Equal("version", entity.Version),
	)

	query, args := sb.Build()
	result, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update contact entity")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update contact entity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("contact entity %s was modified concurrently", entity.ID))
	}

	return r.Get(ctx, entity.ID)
}

// RecordMerge updates the surviving entity's merge bookkeeping: appends the
// absorbed id to the merge history, bumps the counter and stamps the time.
// Uses the survivor's loaded version as an optimistic check.
func (r *Repository) RecordMerge(ctx context.Context, survivor *models.ContactEntity, loserID string) error {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.RecordMerge")
	defer span.End()

	now := time.Now().UTC()
	query := `
		UPDATE contact_entities
		SET merged_from = array_append(merged_from, $2),
		    merge_count = merge_count + 1,
		    last_merged_at = $3,
		    updated_at = $3,
		    version = version + 1
		WHERE id = $1 AND version = $4
	`

	result, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, survivor.ID, loserID, now, survivor.Version)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to record merge on survivor")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record merge on surviving entity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("contact entity %s was modified concurrently", survivor.ID))
	}

	return nil
}

// Delete removes an entity. Only the losing side of a merge is ever deleted,
// and only after its identifiers have been re-pointed.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("contact_entities")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete contact entity")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete contact entity")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("contact entity %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted contact entity")
	return nil
}

// KindCount is one row of the entities-by-kind aggregate.
type KindCount struct {
	Kind  string `db:"kind"`
	Count int    `db:"count"`
}

// CountByKind returns live entity counts grouped by kind.
func (r *Repository) CountByKind(ctx context.Context) ([]KindCount, error) {
	ctx, span := tracing.StartSpan(ctx, "contactentity.Repository.CountByKind")
	defer span.End()

	query := `SELECT kind, COUNT(*) AS count FROM contact_entities GROUP BY kind ORDER BY kind`

	var counts []KindCount
	if err := database.ActiveQueryer(ctx, r.db).SelectContext(ctx, &counts, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count contact entities by kind")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count contact entities")
	}

	return counts, nil
}
