// Package sync reconciles collected menu records against the calendar.
//
// For every record it computes the event the calendar should hold, compares
// it field-by-field with whatever exists at that date, and creates, updates,
// or skips accordingly. Individual calendar failures are counted and never
// abort the pass.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// Stats counts the actions taken in one reconciliation pass.
type Stats struct {
	Added   int
	Updated int
	Skipped int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d added, %d updated, %d skipped, %d errors", s.Added, s.Updated, s.Skipped, s.Errors)
}

// Reconciler aligns the calendar with a set of menu records. Only events
// whose summary starts with the configured prefix are visible to it; all
// other events are never touched.
type Reconciler struct {
	store      gcal.Store
	calendarID string
	prefix     string
	colorID    string
	reminder   *gcal.ReminderOverride
	rateDelay  time.Duration
}

// NewReconciler creates a Reconciler writing to calendarID. A nil reminder
// means events explicitly disable all reminders; events are never left on
// the calendar default.
func NewReconciler(store gcal.Store, calendarID, prefix, colorID string, reminder *gcal.ReminderOverride, rateDelay time.Duration) *Reconciler {
	return &Reconciler{
		store:      store,
		calendarID: calendarID,
		prefix:     prefix,
		colorID:    colorID,
		reminder:   reminder,
		rateDelay:  rateDelay,
	}
}

// Reconcile syncs the records against the calendar and returns the
// cumulative stats. Records are processed in the order collected. A
// cancelled context stops the pass and returns the context error along
// with the stats accumulated so far.
func (r *Reconciler) Reconcile(ctx context.Context, records []menu.Record) (Stats, error) {
	var stats Stats
	if len(records) == 0 {
		logger.Info("no menus to sync")
		return stats, nil
	}

	minDate := records[0].Date
	maxDate := records[0].Date
	for _, rec := range records[1:] {
		if rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}

	existing := r.existingEvents(ctx, minDate, maxDate.AddDate(0, 0, 1))
	logger.Debug("syncing calendar events",
		"from", minDate.Format(menu.DateLayout),
		"to", maxDate.Format(menu.DateLayout),
		"menus", len(records), "existing", len(existing))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync interrupted",
				"added", stats.Added, "updated", stats.Updated, "skipped", stats.Skipped)
			return stats, err
		}

		dateKey := rec.DateKey()
		want := r.eventFor(rec)

		current, ok := existing[dateKey]
		if !ok {
			pause(ctx, r.rateDelay)
			if _, err := r.store.InsertEvent(ctx, r.calendarID, want); err != nil {
				logger.Error("creating event failed", "date", dateKey, "err", err)
				stats.Errors++
				continue
			}
			logger.Info("created event", "date", dateKey, "summary", want.Summary)
			stats.Added++
			continue
		}

		changes := diffEvents(current, want)
		if len(changes) == 0 {
			logger.Debug("event already matches", "date", dateKey)
			stats.Skipped++
			continue
		}

		logger.Info("updating event", "date", dateKey, "changes", strings.Join(changes, ", "))
		pause(ctx, r.rateDelay)
		if _, err := r.store.UpdateEvent(ctx, r.calendarID, current.ID, want); err != nil {
			logger.Error("updating event failed", "date", dateKey, "err", err)
			stats.Errors++
			continue
		}
		stats.Updated++
	}

	logger.Info("calendar sync complete",
		"added", stats.Added, "updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

// existingEvents fetches the tracked events in [from, to) indexed by start
// date. A listing failure is tolerated and treated as an empty calendar;
// every record will then attempt a create.
func (r *Reconciler) existingEvents(ctx context.Context, from, to time.Time) map[string]*gcal.Event {
	indexed := make(map[string]*gcal.Event)

	pause(ctx, r.rateDelay)
	events, err := r.store.ListEvents(ctx, r.calendarID, from, to)
	if err != nil {
		logger.Error("fetching existing events failed, assuming none", "err", err)
		return indexed
	}

	for _, ev := range events {
		if !ev.IsAllDay() {
			continue
		}
		if !strings.HasPrefix(ev.Summary, r.prefix) {
			continue
		}
		indexed[ev.Start.Date] = ev
	}
	return indexed
}

// eventFor computes the event the calendar should hold for a record. The
// end date is exclusive: one day past the start, per the all-day convention.
func (r *Reconciler) eventFor(rec menu.Record) *gcal.Event {
	ev := &gcal.Event{
		Summary: r.prefix + rec.Title,
		ColorID: r.colorID,
		Start:   &gcal.EventDate{Date: rec.DateKey()},
		End:     &gcal.EventDate{Date: rec.Date.AddDate(0, 0, 1).Format(menu.DateLayout)},
		Reminders: &gcal.Reminders{
			UseDefault: false,
			Overrides:  []gcal.ReminderOverride{},
		},
	}
	if rec.Details != "" {
		ev.Description = rec.Details
	}
	if r.reminder != nil {
		ev.Reminders.Overrides = []gcal.ReminderOverride{*r.reminder}
	}
	return ev
}

// diffEvents lists the fields where the existing event diverges from the
// wanted one. An empty result means the record can be skipped.
func diffEvents(existing, want *gcal.Event) []string {
	var changes []string
	if existing.Summary != want.Summary {
		changes = append(changes, fmt.Sprintf("title: %q -> %q", existing.Summary, want.Summary))
	}
	if existing.ColorID != want.ColorID {
		changes = append(changes, fmt.Sprintf("color: %q -> %q", existing.ColorID, want.ColorID))
	}
	if existing.Description != want.Description {
		changes = append(changes, "description updated")
	}
	if existing.StartDate() != want.StartDate() {
		changes = append(changes, fmt.Sprintf("start date: %q -> %q", existing.StartDate(), want.StartDate()))
	}
	if existing.EndDate() != want.EndDate() {
		changes = append(changes, fmt.Sprintf("end date: %q -> %q", existing.EndDate(), want.EndDate()))
	}
	if !remindersMatch(existing.Reminders, want.Reminders) {
		changes = append(changes, "reminders updated")
	}
	return changes
}

// remindersMatch compares the existing reminder state against the wanted
// one. With no overrides wanted, the existing event must explicitly disable
// reminders (useDefault false and no overrides); otherwise the override
// lists must match entry by entry.
func remindersMatch(existing, want *gcal.Reminders) bool {
	if want == nil || len(want.Overrides) == 0 {
		if existing == nil {
			return true
		}
		return !existing.UseDefault && len(existing.Overrides) == 0
	}
	if existing == nil {
		return false
	}
	if len(existing.Overrides) != len(want.Overrides) {
		return false
	}
	for i, w := range want.Overrides {
		e := existing.Overrides[i]
		if e.Method != w.Method || e.Minutes != w.Minutes {
			return false
		}
	}
	return true
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
