package identifier

import (
	"context"
	"database/sql"
	"errors"
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

const identifierColumns = "id, source_system, source_record_id, entity_id, raw_name, raw_email, raw_phone, raw_company, created_at, updated_at"

// Repository handles source identifier persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new identifier repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type upsertRow struct {
	models.Identifier
	Inserted bool `db:"inserted"`
}

// ResolveOrCreate atomically either finds the identifier for a
// (source_system, source_record_id) pair or inserts a new one bound to
// entityID. The xmax trick distinguishes an insert from a conflict hit in a
// single round trip, so two concurrent resolves of the same record cannot
// both create an entity.
func (r *Repository) ResolveOrCreate(ctx context.Context, ident *models.Identifier) (*models.Identifier, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "identifier.Repository.ResolveOrCreate")
	defer span.End()

	if ident.ID == "" {
		ident.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO identifiers (id, source_system, source_record_id, entity_id, raw_name, raw_email, raw_phone, raw_company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (source_system, source_record_id)
		DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING ` + identifierColumns + `, (xmax = 0) AS inserted
	`

	var row upsertRow
	err := database.ActiveQueryer(ctx, r.db).GetContext(ctx, &row, query,
		ident.ID, ident.SourceSystem, ident.SourceRecordID, ident.EntityID,
		ident.RawName, ident.RawEmail, ident.RawPhone, ident.RawCompany, now)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to resolve or create identifier")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve or create identifier")
	}

	return &row.Identifier, row.Inserted, nil
}

// Find looks up an identifier by its source coordinates. Returns nil when the
// record has never been seen, which the dry-run resolve path relies on.
func (r *Repository) Find(ctx context.Context, sourceSystem, sourceRecordID string) (*models.Identifier, error) {
	ctx, span := tracing.StartSpan(ctx, "identifier.Repository.Find")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(identifierColumns)
	sb.From("identifiers")
	sb.Where(
		sb.Equal("source_system", sourceSystem),
		sb.Equal("source_record_id", sourceRecordID),
	)

	query, args := sb.Build()
	var ident models.Identifier
	if err := database.ActiveQueryer(ctx, r.db).GetContext(ctx, &ident, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find identifier")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find identifier")
	}

	return &ident, nil
}

// ListByEntity returns all identifiers currently pointing at an entity.
func (r *Repository) ListByEntity(ctx context.Context, entityID string) ([]models.Identifier, error) {
	ctx, span := tracing.StartSpan(ctx, "identifier.Repository.ListByEntity")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(identifierColumns)
	sb.From("identifiers")
	sb.Where(sb.Equal("entity_id", entityID))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var idents []models.Identifier
	if err := database.ActiveQueryer(ctx, r.db).SelectContext(ctx, &idents, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list identifiers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identifiers")
	}

	return idents, nil
}

// Repoint moves every identifier from one entity to another and returns how
// many were moved. Runs inside the merge transaction.
func (r *Repository) Repoint(ctx context.Context, fromEntityID, toEntityID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "identifier.Repository.Repoint")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("identifiers")
	sb.Set(
		sb.Assign("entity_id", toEntityID),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("entity_id", fromEntityID))

	query, args := sb.Build()
	result, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to repoint identifiers")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to repoint identifiers")
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// SourceCount is one row of the identifiers-by-source aggregate.
type SourceCount struct {
	SourceSystem string `db:"source_system"`
	Count        int    `db:"count"`
}

// CountBySource returns identifier counts grouped by source system.
func (r *Repository) CountBySource(ctx context.Context) ([]SourceCount, error) {
	ctx, span := tracing.StartSpan(ctx, "identifier.Repository.CountBySource")
	defer span.End()

	query := `SELECT source_system, COUNT(*) AS count FROM identifiers GROUP BY source_system ORDER BY source_system`

	var counts []SourceCount
	if err := database.ActiveQueryer(ctx, r.db).SelectContext(ctx, &counts, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count identifiers by source")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count identifiers")
	}

	return counts, nil
}
