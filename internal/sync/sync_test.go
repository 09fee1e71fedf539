package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// fakeStore is an in-memory gcal.Store recording every mutation. Failures
// are injected per start date (inserts) or per event ID (updates).
type fakeStore struct {
	events  []*gcal.Event
	listErr error

	insertErr map[string]error
	updateErr map[string]error

	inserted []*gcal.Event
	updated  map[string]*gcal.Event
	nextID   int
}

func newFakeStore(events ...*gcal.Event) *fakeStore {
	return &fakeStore{events: events, updated: make(map[string]*gcal.Event)}
}

func (s *fakeStore) ListEvents(_ context.Context, _ string, _, _ time.Time) ([]*gcal.Event, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.events, nil
}

func (s *fakeStore) InsertEvent(_ context.Context, _ string, ev *gcal.Event) (*gcal.Event, error) {
	if err := s.insertErr[ev.StartDate()]; err != nil {
		return nil, err
	}
	s.nextID++
	s.inserted = append(s.inserted, ev)
	return ev, nil
}

func (s *fakeStore) UpdateEvent(_ context.Context, _, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	if err := s.updateErr[eventID]; err != nil {
		return nil, err
	}
	s.updated[eventID] = ev
	return ev, nil
}

func (s *fakeStore) DeleteEvent(_ context.Context, _, _ string) error {
	return errors.New("not implemented")
}

func record(date, title, details string) menu.Record {
	d, _ := time.Parse(menu.DateLayout, date)
	return menu.Record{Date: d, Title: title, Details: details}
}

func allDayEvent(id, summary, date string) *gcal.Event {
	d, _ := time.Parse(menu.DateLayout, date)
	return &gcal.Event{
		ID:      id,
		Summary: summary,
		ColorID: "3",
		Start:   &gcal.EventDate{Date: date},
		End:     &gcal.EventDate{Date: d.AddDate(0, 0, 1).Format(menu.DateLayout)},
		Reminders: &gcal.Reminders{
			UseDefault: false,
			Overrides:  []gcal.ReminderOverride{},
		},
	}
}

func TestReconcileCreatesMissingEvents(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	records := []menu.Record{
		record("2025-01-06", "Pizza Day", ""),
		record("2025-01-07", "Tacos", "MENU ITEMS\n- Tacos"),
		record("2025-01-08", "Burger", ""),
	}

	stats, err := r.Reconcile(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, Stats{Added: 3}, stats)
	require.Len(t, store.inserted, 3)

	first := store.inserted[0]
	assert.Equal(t, "FRHL: Pizza Day", first.Summary)
	assert.Equal(t, "3", first.ColorID)
	assert.Equal(t, "2025-01-06", first.StartDate())
	assert.Equal(t, "2025-01-07", first.EndDate())
	require.NotNil(t, first.Reminders)
	assert.False(t, first.Reminders.UseDefault)
	assert.Empty(t, first.Reminders.Overrides)
	assert.Empty(t, first.Description)

	assert.Equal(t, "MENU ITEMS\n- Tacos", store.inserted[1].Description)
}

func TestReconcileUpdatesChangedEvent(t *testing.T) {
	existing := allDayEvent("ev1", "FRHL: Old Menu", "2025-01-06")
	store := newFakeStore(existing)
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{record("2025-01-06", "New Menu", "")})
	require.NoError(t, err)

	assert.Equal(t, Stats{Updated: 1}, stats)
	assert.Empty(t, store.inserted)
	require.Contains(t, store.updated, "ev1")
	assert.Equal(t, "FRHL: New Menu", store.updated["ev1"].Summary)
}

func TestReconcileSkipsMatchingEvents(t *testing.T) {
	existing := allDayEvent("ev1", "FRHL: Pizza Day", "2025-01-06")
	store := newFakeStore(existing)
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{record("2025-01-06", "Pizza Day", "")})
	require.NoError(t, err)

	assert.Equal(t, Stats{Skipped: 1}, stats)
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.updated)
}

func TestReconcileIgnoresForeignEvents(t *testing.T) {
	dentist := allDayEvent("ev1", "Dentist", "2025-01-06")
	timed := &gcal.Event{
		ID:      "ev2",
		Summary: "FRHL: Pizza Day",
		Start:   &gcal.EventDate{DateTime: "2025-01-06T12:00:00Z"},
	}
	store := newFakeStore(dentist, timed)
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{record("2025-01-06", "Pizza Day", "")})
	require.NoError(t, err)

	// Neither the foreign event nor the timed one counts as existing, so the
	// record is created fresh and nothing is updated.
	assert.Equal(t, Stats{Added: 1}, stats)
	assert.Empty(t, store.updated)
}

func TestReconcileToleratesListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("boom")
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{
		record("2025-01-06", "Pizza Day", ""),
		record("2025-01-07", "Tacos", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Added: 2}, stats)
}

func TestReconcileCountsPerRecordErrors(t *testing.T) {
	store := newFakeStore()
	store.insertErr = map[string]error{"2025-01-07": errors.New("quota exceeded")}
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{
		record("2025-01-06", "Pizza Day", ""),
		record("2025-01-07", "Tacos", ""),
		record("2025-01-08", "Burger", ""),
	})
	require.NoError(t, err)

	// The failed create is counted and the remaining records still process.
	assert.Equal(t, Stats{Added: 2, Errors: 1}, stats)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "2025-01-06", store.inserted[0].StartDate())
	assert.Equal(t, "2025-01-08", store.inserted[1].StartDate())
}

func TestReconcileCountsUpdateErrors(t *testing.T) {
	store := newFakeStore(allDayEvent("ev1", "FRHL: Old Menu", "2025-01-06"))
	store.updateErr = map[string]error{"ev1": errors.New("conflict")}
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	stats, err := r.Reconcile(context.Background(), []menu.Record{
		record("2025-01-06", "New Menu", ""),
		record("2025-01-07", "Tacos", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Added: 1, Errors: 1}, stats)
	assert.Empty(t, store.updated)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "2025-01-07", store.inserted[0].StartDate())
}

func TestReconcileStopsOnCancelledContext(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := r.Reconcile(ctx, []menu.Record{
		record("2025-01-06", "Pizza Day", ""),
		record("2025-01-07", "Tacos", ""),
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Stats{}, stats)
	assert.Empty(t, store.inserted)
}

func TestReconcileWithReminder(t *testing.T) {
	store := newFakeStore()
	reminder := &gcal.ReminderOverride{Method: "popup", Minutes: 30}
	r := NewReconciler(store, "cal", "FRHL: ", "3", reminder, 0)

	_, err := r.Reconcile(context.Background(), []menu.Record{record("2025-01-06", "Pizza Day", "")})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	require.NotNil(t, store.inserted[0].Reminders)
	assert.False(t, store.inserted[0].Reminders.UseDefault)
	assert.Equal(t, []gcal.ReminderOverride{{Method: "popup", Minutes: 30}}, store.inserted[0].Reminders.Overrides)
}

func TestReconcileSecondRunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store, "cal", "FRHL: ", "3", nil, 0)
	records := []menu.Record{
		record("2025-01-06", "Pizza Day", "MENU ITEMS\n- Pizza"),
		record("2025-01-07", "Tacos", ""),
	}

	first, err := r.Reconcile(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, Stats{Added: 2}, first)

	// Feed the inserted events back as the calendar state.
	for i, ev := range store.inserted {
		ev.ID = string(rune('a' + i))
	}
	second := NewReconciler(newFakeStore(store.inserted...), "cal", "FRHL: ", "3", nil, 0)
	stats, err := second.Reconcile(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, Stats{Skipped: 2}, stats)
}

func TestRemindersMatch(t *testing.T) {
	popup := gcal.ReminderOverride{Method: "popup", Minutes: 30}

	tests := []struct {
		name     string
		existing *gcal.Reminders
		want     *gcal.Reminders
		match    bool
	}{
		{
			name:  "Both absent",
			match: true,
		},
		{
			name:     "Explicitly disabled matches none wanted",
			existing: &gcal.Reminders{UseDefault: false, Overrides: []gcal.ReminderOverride{}},
			want:     &gcal.Reminders{UseDefault: false, Overrides: []gcal.ReminderOverride{}},
			match:    true,
		},
		{
			name:     "Calendar default does not match none wanted",
			existing: &gcal.Reminders{UseDefault: true},
			want:     &gcal.Reminders{UseDefault: false, Overrides: []gcal.ReminderOverride{}},
			match:    false,
		},
		{
			name:  "Override wanted but nothing set",
			want:  &gcal.Reminders{UseDefault: false, Overrides: []gcal.ReminderOverride{popup}},
			match: false,
		},
		{
			name:     "Matching overrides",
			existing: &gcal.Reminders{Overrides: []gcal.ReminderOverride{popup}},
			want:     &gcal.Reminders{Overrides: []gcal.ReminderOverride{popup}},
			match:    true,
		},
		{
			name:     "Different minutes",
			existing: &gcal.Reminders{Overrides: []gcal.ReminderOverride{{Method: "popup", Minutes: 10}}},
			want:     &gcal.Reminders{Overrides: []gcal.ReminderOverride{popup}},
			match:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, remindersMatch(tt.existing, tt.want))
		})
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Added: 1, Updated: 2, Skipped: 3, Errors: 4}
	assert.Equal(t, "1 added, 2 updated, 3 skipped, 4 errors", s.String())
}
