package ports

import (
	"context"

	"flowcast/models"

	"github.com/google/uuid"
)

// FlowSessionRepository persists flow-session lifecycle rows. The in-memory
// session remains the source of truth while a flow runs; these records are a
// write-behind log used for resuming and for the dashboard.
type FlowSessionRepository interface {
	// CreateFlowSession records a newly started flow.
	CreateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error

	// UpdateFlowSession updates the current post and done bookkeeping.
	UpdateFlowSession(ctx context.Context, record *models.FlowSessionRecord) error

	// GetFlowSession retrieves one session by id.
	GetFlowSession(ctx context.Context, id uuid.UUID) (*models.FlowSessionRecord, error)

	// ListRecentFlowSessions returns the most recently updated sessions.
	ListRecentFlowSessions(ctx context.Context, limit int) ([]*models.FlowSessionRecord, error)
}
