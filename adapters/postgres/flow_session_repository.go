package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"flowcast/internal/errors"
	"flowcast/models"
	"flowcast/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FlowSessionRepositoryImpl implements FlowSessionRepository for PostgreSQL
type FlowSessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewFlowSessionRepository creates a new PostgreSQL flow session repository
func NewFlowSessionRepository(db *sqlx.DB) ports.FlowSessionRepository {
	return &FlowSessionRepositoryImpl{db: db}
}

// CreateFlowSession records a newly started flow
func (r *FlowSessionRepositoryImpl) CreateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error {
	// Int64List implements driver.Valuer, so the id lists land as jsonb.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO flow_sessions (id, flow_type, post_ids, done_post_ids, current_post_id, started_at, finished_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ID, record.FlowType, record.PostIDs, record.DonePostIDs, record.CurrentPostID, record.StartedAt, record.FinishedAt, record.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create flow session")
	}
	return nil
}

// UpdateFlowSession updates the current post and done bookkeeping
func (r *FlowSessionRepositoryImpl) UpdateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE flow_sessions
		SET done_post_ids = $2, current_post_id = $3, finished_at = $4, updated_at = $5
		WHERE id = $1
	`, record.ID, record.DonePostIDs, record.CurrentPostID, record.FinishedAt, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to update flow session")
	}
	return nil
}

// GetFlowSession retrieves one session by id
func (r *FlowSessionRepositoryImpl) GetFlowSession(ctx context.Context, id uuid.UUID) (*models.FlowSessionRecord, error) {
	var record models.FlowSessionRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, flow_type, post_ids, done_post_ids, current_post_id, started_at, finished_at, updated_at
		FROM flow_sessions
		WHERE id = $1
	`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("flow session")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get flow session")
	}
	return &record, nil
}

// ListRecentFlowSessions returns the most recently updated sessions
func (r *FlowSessionRepositoryImpl) ListRecentFlowSessions(ctx context.Context, limit int) ([]*models.FlowSessionRecord, error) {
	var records []*models.FlowSessionRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, flow_type, post_ids, done_post_ids, current_post_id, started_at, finished_at, updated_at
		FROM flow_sessions
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list flow sessions")
	}
	return records, nil
}
