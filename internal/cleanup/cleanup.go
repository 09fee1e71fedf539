// Package cleanup finds and removes duplicate all-day menu events.
//
// Duplicates happen when a sync run is interrupted between listing and
// creating. For each date carrying more than one tracked event, the
// earliest-listed event is kept and the rest are deleted. Preview mode
// reports the would-be deletions without calling delete.
package cleanup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
)

// Cleaner scans a calendar for duplicate tracked events.
type Cleaner struct {
	store      gcal.Store
	calendarID string
	prefix     string
	rateDelay  time.Duration
}

// New creates a Cleaner for the events whose summary starts with prefix.
func New(store gcal.Store, calendarID, prefix string, rateDelay time.Duration) *Cleaner {
	return &Cleaner{
		store:      store,
		calendarID: calendarID,
		prefix:     prefix,
		rateDelay:  rateDelay,
	}
}

// Duplicate is one date holding more than one tracked event. Events keeps
// the listing order; Events[0] is the one that survives.
type Duplicate struct {
	Date   string
	Events []*gcal.Event
}

// Extra returns the number of events that would be deleted.
func (d Duplicate) Extra() int {
	return len(d.Events) - 1
}

// FindDuplicates lists the tracked all-day events in [from, to) and returns
// every date holding more than one, in first-seen date order.
func (c *Cleaner) FindDuplicates(ctx context.Context, from, to time.Time) ([]Duplicate, error) {
	events, err := c.store.ListEvents(ctx, c.calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	byDate := make(map[string][]*gcal.Event)
	var order []string
	matched := 0
	for _, ev := range events {
		if !ev.IsAllDay() {
			continue
		}
		if !strings.HasPrefix(ev.Summary, c.prefix) {
			continue
		}
		matched++
		date := ev.Start.Date
		if _, seen := byDate[date]; !seen {
			order = append(order, date)
		}
		byDate[date] = append(byDate[date], ev)
	}
	logger.Info("scanned calendar", "events", len(events), "tracked", matched)

	var duplicates []Duplicate
	for _, date := range order {
		if len(byDate[date]) > 1 {
			duplicates = append(duplicates, Duplicate{Date: date, Events: byDate[date]})
		}
	}
	return duplicates, nil
}

// Run deletes every duplicate beyond the first event of each date and
// returns the deleted and failed counts. In preview mode nothing is
// deleted; the would-be deletions are logged instead.
func (c *Cleaner) Run(ctx context.Context, duplicates []Duplicate, preview bool) (deleted, errs int) {
	for _, dup := range duplicates {
		extras := dup.Events[1:]
		logger.Info("processing date", "date", dup.Date, "keep", dup.Events[0].Summary, "delete", len(extras))

		for _, ev := range extras {
			if preview {
				logger.Info("would delete", "date", dup.Date, "summary", ev.Summary, "id", ev.ID)
				continue
			}
			if ctx.Err() != nil {
				return deleted, errs
			}

			pause(ctx, c.rateDelay)
			if err := c.store.DeleteEvent(ctx, c.calendarID, ev.ID); err != nil {
				logger.Error("deleting event failed", "date", dup.Date, "id", ev.ID, "err", err)
				errs++
				continue
			}
			logger.Info("deleted event", "date", dup.Date, "summary", ev.Summary)
			deleted++
		}
	}
	return deleted, errs
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
