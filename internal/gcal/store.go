package gcal

import (
	"context"
	"time"
)

// Store is the calendar surface the reconciler and cleanup tool consume.
// The production implementation is Client; tests substitute fakes.
type Store interface {
	// ListEvents returns every event in [timeMin, timeMax), following
	// pagination until the listing is exhausted.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*Event, error)
	// InsertEvent creates a new event and returns it as stored.
	InsertEvent(ctx context.Context, calendarID string, ev *Event) (*Event, error)
	// UpdateEvent replaces the event identified by eventID.
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev *Event) (*Event, error)
	// DeleteEvent removes the event identified by eventID.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
