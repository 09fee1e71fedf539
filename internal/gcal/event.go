// Package gcal models Google Calendar events and provides the Store surface
// the reconciler and cleanup tool mutate them through.
package gcal

// EventDate is the start/end field of an event. All-day events carry Date
// only; timed events carry DateTime instead and are ignored by this tool.
type EventDate struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
}

// ReminderOverride is one explicit reminder on an event.
type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// Reminders is the reminder configuration of an event. Events written by
// this tool always set UseDefault false: reminders are either the configured
// overrides or explicitly none, never the calendar default.
type Reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []ReminderOverride `json:"overrides"`
}

// Event is the subset of the Calendar API event resource this tool reads
// and writes.
type Event struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	ColorID     string     `json:"colorId,omitempty"`
	Start       *EventDate `json:"start,omitempty"`
	End         *EventDate `json:"end,omitempty"`
	Reminders   *Reminders `json:"reminders,omitempty"`
	Created     string     `json:"created,omitempty"`
}

// IsAllDay reports whether the event is an all-day event.
func (e *Event) IsAllDay() bool {
	return e.Start != nil && e.Start.Date != ""
}

// StartDate returns the all-day start date (YYYY-MM-DD), or "" for timed
// events.
func (e *Event) StartDate() string {
	if e.Start == nil {
		return ""
	}
	return e.Start.Date
}

// EndDate returns the exclusive all-day end date (YYYY-MM-DD), or "".
func (e *Event) EndDate() string {
	if e.End == nil {
		return ""
	}
	return e.End.Date
}
