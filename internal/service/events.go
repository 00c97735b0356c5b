// Package service contains application services sitting between handlers
// and the store: the audit event log and upload handling.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"goblog/internal/store"
)

// EventService writes audit records to the events table.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates an EventService bound to the database.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// Log writes an event record. userID may be nil for anonymous actions.
func (s *EventService) Log(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	metaJSON := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshaling event metadata: %w", err)
		}
		metaJSON = string(b)
	}

	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    uid,
		Metadata:  metaJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}
