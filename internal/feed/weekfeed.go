package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// Items without an explicit position sort last.
const defaultPosition = 9999

// After this many weekly fetches fail in a row, the vendor is treated as
// unreachable and collection stops. Isolated failures are tolerated.
const maxConsecutiveFailedWeeks = 3

// WeekFeed collects menus from a NutriSlice-style weekly JSON API. One GET
// per week at {base}/{YYYY/MM/DD}/ where the date is the Sunday of the week.
type WeekFeed struct {
	baseURL   string
	client    Getter
	norm      *menu.Normalizer
	rateDelay time.Duration
}

// NewWeekFeed creates a WeekFeed rooted at baseURL.
func NewWeekFeed(baseURL string, client Getter, norm *menu.Normalizer, rateDelay time.Duration) *WeekFeed {
	return &WeekFeed{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		norm:      norm,
		rateDelay: rateDelay,
	}
}

type weekPayload struct {
	Days []weekDay `json:"days"`
}

type weekDay struct {
	Date      string     `json:"date"`
	MenuItems []weekItem `json:"menu_items"`
}

type weekItem struct {
	Text      string    `json:"text"`
	IsHoliday bool      `json:"is_holiday"`
	Position  *int      `json:"position"`
	Food      *weekFood `json:"food"`
}

type weekFood struct {
	Name string `json:"name"`
}

// ValidateConfig checks that the base URL is a NutriSlice endpoint.
func (f *WeekFeed) ValidateConfig() error {
	if !strings.Contains(strings.ToLower(f.baseURL), "nutrislice.com") {
		return fmt.Errorf("invalid NutriSlice URL: %s", f.baseURL)
	}
	return nil
}

// CollectMenus fetches week-by-week starting from the Sunday of the week
// containing start. A week whose eligible days carry no menu items at all
// means the vendor hasn't published that far ahead yet, and collection
// stops there.
func (f *WeekFeed) CollectMenus(ctx context.Context, start time.Time, maxWeeks int) ([]menu.Record, error) {
	var records []menu.Record
	failedWeeks := 0
	sunday := sundayOf(start)

	logger.Info("starting NutriSlice menu collection", "start", start.Format(menu.DateLayout))

	for week := 0; week < maxWeeks; week++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		weekKey := sunday.Format(menu.DateLayout)
		payload, err := f.fetchWeek(ctx, sunday)
		if err != nil {
			failedWeeks++
			logger.Warn("failed to fetch weekly data", "week", weekKey, "err", err)
			if failedWeeks >= maxConsecutiveFailedWeeks {
				logger.Error("giving up after consecutive failed weeks", "failures", failedWeeks)
				break
			}
			sunday = sunday.AddDate(0, 0, 7)
			continue
		}

		weekHasItems := false
		found := 0
		for _, day := range payload.Days {
			if day.Date == "" {
				continue
			}
			date, err := time.Parse(menu.DateLayout, day.Date)
			if err != nil {
				logger.Warn("invalid date in weekly payload", "date", day.Date)
				continue
			}
			if date.Before(start) {
				continue
			}
			if menu.IsWeekend(date) {
				continue
			}
			if len(day.MenuItems) > 0 {
				weekHasItems = true
			}

			rec, ok := f.extractDay(day)
			if !ok {
				continue
			}
			rec.Date = date
			records = append(records, rec)
			found++
			logger.Info("collected menu", "date", day.Date, "title", rec.Title)
		}
		logger.Debug("processed week", "week", weekKey, "menus", found)

		if !weekHasItems {
			logger.Info("reached week with no published menus, stopping", "week", weekKey)
			break
		}

		failedWeeks = 0
		sunday = sunday.AddDate(0, 0, 7)
		pause(ctx, f.rateDelay)
	}

	logger.Info("NutriSlice menu collection complete", "menus", len(records))
	return records, nil
}

func (f *WeekFeed) fetchWeek(ctx context.Context, sunday time.Time) (*weekPayload, error) {
	url := fmt.Sprintf("%s/%s/", f.baseURL, sunday.Format("2006/01/02"))
	var payload weekPayload
	if err := f.client.GetJSON(ctx, url, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// extractDay resolves one day's items to a title and details block. Holiday
// markers win over everything else for that day.
func (f *WeekFeed) extractDay(day weekDay) (menu.Record, bool) {
	if len(day.MenuItems) == 0 {
		logger.Debug("no menu items", "date", day.Date)
		return menu.Record{}, false
	}

	for _, item := range day.MenuItems {
		if item.IsHoliday {
			logger.Info("holiday detected, skipping", "date", day.Date)
			return menu.Record{}, false
		}
	}

	// First item with usable text wins; food.name is the fallback within
	// each item.
	title := ""
	for _, item := range day.MenuItems {
		if text := strings.TrimSpace(item.Text); text != "" {
			title = f.norm.Apply(text)
			break
		}
		if item.Food != nil {
			if name := strings.TrimSpace(item.Food.Name); name != "" {
				title = f.norm.Apply(name)
				break
			}
		}
	}
	if title == "" {
		logger.Debug("no valid menu title", "date", day.Date)
		return menu.Record{}, false
	}

	return menu.Record{Title: title, Details: f.menuDetails(day.MenuItems)}, true
}

// menuDetails lists every named food item ordered by its display position.
func (f *WeekFeed) menuDetails(items []weekItem) string {
	type entry struct {
		position int
		name     string
	}
	var entries []entry
	for _, item := range items {
		if item.Food == nil {
			continue
		}
		name := strings.TrimSpace(item.Food.Name)
		if name == "" {
			continue
		}
		position := defaultPosition
		if item.Position != nil {
			position = *item.Position
		}
		entries = append(entries, entry{position: position, name: f.norm.Apply(name)})
	}
	if len(entries) == 0 {
		return ""
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].position < entries[j].position })

	lines := []string{"MENU ITEMS"}
	for _, e := range entries {
		lines = append(lines, "- "+e.name)
	}
	return strings.Join(lines, "\n")
}

// sundayOf returns the Sunday on or before t.
func sundayOf(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}
