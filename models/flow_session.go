// Package models holds the persisted record types shared between the
// repositories and the services.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"flowcast/domain/flow"

	"github.com/google/uuid"
)

// Int64List is a jsonb-backed ordered id list.
type Int64List []int64

// Value implements driver.Valuer.
func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]int64{})
	}
	return json.Marshal([]int64(l))
}

// Scan implements sql.Scanner.
func (l *Int64List) Scan(value interface{}) error {
	if value == nil {
		*l = Int64List{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = Int64List{}
		return nil
	}
	if len(bytes) == 0 {
		*l = Int64List{}
		return nil
	}
	var out []int64
	if err := json.Unmarshal(bytes, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// FlowSessionRecord is the persisted lifecycle row for one flow session.
// FlowType is empty for ad-hoc sessions. CurrentPostID is nil once the flow
// reached its terminal state.
type FlowSessionRecord struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	FlowType      string     `json:"flow_type" db:"flow_type"`
	PostIDs       Int64List  `json:"post_ids" db:"post_ids"`
	DonePostIDs   Int64List  `json:"done_post_ids" db:"done_post_ids"`
	CurrentPostID *int64     `json:"current_post_id,omitempty" db:"current_post_id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// NewFlowSessionRecord snapshots a freshly started session.
func NewFlowSessionRecord(id uuid.UUID, s *flow.Session) *FlowSessionRecord {
	now := time.Now()
	record := &FlowSessionRecord{
		ID:          id,
		PostIDs:     Int64List(s.PostIDs()),
		DonePostIDs: Int64List{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if ft := s.FlowType(); ft != nil {
		record.FlowType = string(*ft)
	}
	record.CurrentPostID = s.CurrentPostID()
	if record.CurrentPostID == nil {
		record.FinishedAt = &now
	}
	return record
}

// SyncFromSession refreshes the mutable columns from the live session.
func (r *FlowSessionRecord) SyncFromSession(s *flow.Session) {
	now := time.Now()
	r.CurrentPostID = s.CurrentPostID()
	done := Int64List{}
	for _, step := range s.Steps() {
		if step.Done {
			done = append(done, step.PostID)
		}
	}
	r.DonePostIDs = done
	if r.CurrentPostID == nil && r.FinishedAt == nil {
		r.FinishedAt = &now
	}
	r.UpdatedAt = now
}
