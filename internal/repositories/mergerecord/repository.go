package mergerecord

import (
	"context"
	"encoding/json"
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

const mergeRecordColumns = "id, surviving_entity_id, merged_entity_id, merged_snapshot, match_score, match_reasons, triggered_by, created_at"

// Repository handles the append-only merge audit trail
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new merge record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit record for a completed merge. Runs inside the
// merge transaction so the trail and the merge commit or roll back together.
func (r *Repository) Create(ctx context.Context, record *models.MergeRecord) (*models.MergeRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "mergerecord.Repository.Create")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("merge_records")
	sb.Cols("id", "surviving_entity_id", "merged_entity_id", "merged_snapshot", "match_score", "match_reasons", "triggered_by", "created_at")
	snapshot := database.JSONB[json.RawMessage]{Data: record.MergedSnapshot}
	sb.Values(record.ID, record.SurvivingEntityID, record.MergedEntityID, snapshot, record.MatchScore, record.MatchReasons, record.TriggeredBy, record.CreatedAt)

	query, args := sb.Build()
	if _, err := database.ActiveQueryer(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create merge record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create merge record")
	}

	return record, nil
}

// ListBySurvivor returns the merge history of an entity, newest first.
func (r *Repository) ListBySurvivor(ctx context.Context, survivingEntityID string) ([]models.MergeRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "mergerecord.Repository.ListBySurvivor")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(mergeRecordColumns)
	sb.From("merge_records")
	sb.Where(sb.Equal("surviving_entity_id", survivingEntityID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var records []models.MergeRecord
	if err := database.ActiveQueryer(ctx, r.db).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list merge records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list merge records")
	}

	return records, nil
}

// CountSince returns the number of merges recorded at or after the cutoff.
func (r *Repository) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "mergerecord.Repository.CountSince")
	defer span.End()

	query := `SELECT COUNT(*) FROM merge_records WHERE created_at >= $1`

	var count int
	if err := database.ActiveQueryer(ctx, r.db).GetContext(ctx, &count, query, cutoff); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count merge records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count merge records")
	}

	return count, nil
}

// Count returns the total number of merges ever recorded.
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "mergerecord.Repository.Count")
	defer span.End()

	query := `SELECT COUNT(*) FROM merge_records`

	var count int
	if err := database.ActiveQueryer(ctx, r.db).GetContext(ctx, &count, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count merge records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count merge records")
	}

	return count, nil
}
