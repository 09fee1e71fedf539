// Package feed implements the supported vendor menu APIs.
//
// Each vendor publishes a different JSON shape addressed by a different
// period: NutriSlice serves one document per calendar week, FDMealPlanner
// one per calendar month. Both are modeled as a Source that validates its
// own configuration and drives period-by-period collection. New vendors are
// added as new Source implementations, never as branches inside shared
// logic.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// Source is one vendor menu API.
type Source interface {
	// ValidateConfig checks vendor-specific parameters before any network
	// activity.
	ValidateConfig() error
	// CollectMenus walks successive periods starting at start, bounded by
	// the span maxWeeks covers, and returns records in chronological
	// discovery order.
	CollectMenus(ctx context.Context, start time.Time, maxWeeks int) ([]menu.Record, error)
}

// Getter fetches a JSON document. Satisfied by fetch.Client.
type Getter interface {
	GetJSON(ctx context.Context, url string, params map[string]string, out any) error
}

// MonthFeedParams are the tenant-scoped identifiers the FDMealPlanner API
// requires on every request.
type MonthFeedParams struct {
	AccountID    string
	LocationID   string
	MealPeriodID string
	TenantID     string
}

// New selects the Source matching the configured base URL.
func New(baseURL string, params MonthFeedParams, client Getter, norm *menu.Normalizer, rateDelay time.Duration) (Source, error) {
	u := strings.ToLower(baseURL)
	switch {
	case strings.Contains(u, "nutrislice.com"):
		return NewWeekFeed(baseURL, client, norm, rateDelay), nil
	case strings.Contains(u, "fdmealplanner.com"):
		return NewMonthFeed(baseURL, params, client, norm, rateDelay), nil
	default:
		return nil, fmt.Errorf("unsupported menu API URL: %s (supported: nutrislice.com, fdmealplanner.com)", baseURL)
	}
}

// pause sleeps for the vendor rate-limit delay, returning early if the run
// is cancelled.
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
