package feed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// MonthFeed collects menus from an FDMealPlanner-style monthly JSON API.
// One GET per month against the base URL, scoped by the tenant identifiers
// in MonthFeedParams.
type MonthFeed struct {
	baseURL   string
	params    MonthFeedParams
	client    Getter
	norm      *menu.Normalizer
	rateDelay time.Duration
}

// NewMonthFeed creates a MonthFeed against baseURL.
func NewMonthFeed(baseURL string, params MonthFeedParams, client Getter, norm *menu.Normalizer, rateDelay time.Duration) *MonthFeed {
	return &MonthFeed{
		baseURL:   baseURL,
		params:    params,
		client:    client,
		norm:      norm,
		rateDelay: rateDelay,
	}
}

type monthPayload struct {
	Result []monthDay `json:"result"`
}

type monthDay struct {
	Date    string      `json:"strMenuForDate"`
	Recipes []monthItem `json:"menuRecipiesData"`
}

type monthItem struct {
	Category             string `json:"category"`
	ParentComponentID    int    `json:"parentComponentId"`
	SequenceNumber       int    `json:"sequenceNumber"`
	ComponentID          int    `json:"componentId"`
	EnglishAlternateName string `json:"englishAlternateName"`
	ComponentEnglishName string `json:"componentEnglishName"`
	ComponentName        string `json:"componentName"`
}

// ValidateConfig checks the base URL and the four tenant identifiers the
// API requires.
func (f *MonthFeed) ValidateConfig() error {
	if !strings.Contains(strings.ToLower(f.baseURL), "fdmealplanner.com") {
		return fmt.Errorf("invalid FDMealPlanner URL: %s", f.baseURL)
	}

	var missing []string
	if f.params.AccountID == "" {
		missing = append(missing, "account-id")
	}
	if f.params.LocationID == "" {
		missing = append(missing, "location-id")
	}
	if f.params.MealPeriodID == "" {
		missing = append(missing, "meal-period-id")
	}
	if f.params.TenantID == "" {
		missing = append(missing, "tenant-id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required FDMealPlanner parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CollectMenus fetches month-by-month starting from the month containing
// start. A month with an empty result set means the vendor has nothing
// published that far ahead, and collection stops. A fetch failure aborts
// the whole run: the API either serves its billing-period data or nothing.
func (f *MonthFeed) CollectMenus(ctx context.Context, start time.Time, maxWeeks int) ([]menu.Record, error) {
	var records []menu.Record
	maxMonths := maxWeeks/4 + 2

	logger.Info("starting FDMealPlanner menu collection", "start", start.Format(menu.DateLayout))

	cursor := start
	processed := make(map[string]bool)
	for m := 0; m < maxMonths; m++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		monthKey := cursor.Format("2006-01")
		if processed[monthKey] {
			cursor = nextMonth(cursor)
			continue
		}

		payload, err := f.fetchMonth(ctx, cursor.Year(), cursor.Month())
		processed[monthKey] = true
		if err != nil {
			return records, fmt.Errorf("fetching monthly data for %s: %w", monthKey, err)
		}

		if len(payload.Result) == 0 {
			logger.Info("no menu data available, stopping", "month", monthKey)
			break
		}

		found := 0
		for _, day := range payload.Result {
			if day.Date == "" {
				continue
			}
			date, err := time.Parse(menu.DateLayout, day.Date)
			if err != nil {
				logger.Warn("invalid date in monthly payload", "date", day.Date)
				continue
			}
			if date.Before(start) {
				continue
			}
			if menu.IsWeekend(date) {
				continue
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
		logger.Debug("processed month", "month", monthKey, "menus", found)

		cursor = nextMonth(cursor)
		pause(ctx, f.rateDelay)
	}

	logger.Info("FDMealPlanner menu collection complete", "menus", len(records))
	return records, nil
}

func (f *MonthFeed) fetchMonth(ctx context.Context, year int, month time.Month) (*monthPayload, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	params := map[string]string{
		"menuId":       "0",
		"accountId":    f.params.AccountID,
		"locationId":   f.params.LocationID,
		"mealPeriodId": f.params.MealPeriodID,
		"tenantId":     f.params.TenantID,
		"monthId":      strconv.Itoa(int(month)),
		"fromDate":     first.Format("2006/01/02"),
		"endDate":      last.Format("2006/01/02"),
		"timeOffset":   "360",
		"_":            strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	var payload monthPayload
	if err := f.client.GetJSON(ctx, f.baseURL, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (f *MonthFeed) extractDay(day monthDay) (menu.Record, bool) {
	if len(day.Recipes) == 0 {
		logger.Debug("no menu recipe data", "date", day.Date)
		return menu.Record{}, false
	}

	title, ok := f.menuTitle(day.Recipes, day.Date)
	if !ok {
		return menu.Record{}, false
	}

	return menu.Record{Title: title, Details: f.menuDetails(day.Recipes)}, true
}

// menuTitle resolves the day's title. Special categories (anything outside
// side/entrée/condiment) take the title over the entrées entirely;
// otherwise the top-level entrées tied at the highest sequence number all
// contribute their names.
func (f *MonthFeed) menuTitle(items []monthItem, date string) (string, bool) {
	nonSide := dropSides(items)
	if len(nonSide) == 0 {
		logger.Debug("no non-side menu items", "date", date)
		return "", false
	}

	var special []string
	var entrees []monthItem
	for _, item := range nonSide {
		category := strings.TrimSpace(item.Category)
		switch lower := strings.ToLower(category); {
		case lower == "lunch entrée" || lower == "entree":
			entrees = append(entrees, item)
		case category != "":
			special = append(special, category)
		}
	}

	if len(special) > 0 {
		var cleaned []string
		for _, category := range dedupe(special) {
			cleaned = append(cleaned, f.norm.Apply(category))
		}
		title := strings.Join(cleaned, " | ")
		logger.Debug("special category menu", "date", date, "title", title)
		return title, true
	}

	if len(entrees) == 0 {
		logger.Debug("no lunch entree items", "date", date)
		return "", false
	}

	var parents []monthItem
	for _, item := range entrees {
		if item.ParentComponentID == 0 {
			parents = append(parents, item)
		}
	}
	if len(parents) == 0 {
		logger.Debug("no top-level lunch entree items", "date", date)
		return "", false
	}

	maxSeq := parents[0].SequenceNumber
	for _, item := range parents[1:] {
		if item.SequenceNumber > maxSeq {
			maxSeq = item.SequenceNumber
		}
	}

	// All items tied at the maximum contribute, not just the first.
	var names []string
	for _, item := range parents {
		if item.SequenceNumber == maxSeq {
			names = append(names, f.norm.Apply(preferredName(item)))
		}
	}
	if len(names) == 0 {
		return "", false
	}

	return strings.Join(dedupe(names), " | "), true
}

// menuDetails renders the day's full menu grouped by category: an
// upper-cased header per category, a "- name" line per top-level item, and
// indented lines for each item's children.
func (f *MonthFeed) menuDetails(items []monthItem) string {
	kept := dropSides(items)
	sorted := make([]monthItem, len(kept))
	copy(sorted, kept)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SequenceNumber < sorted[j].SequenceNumber
	})

	var categoryOrder []string
	parentsByCategory := make(map[string][]monthItem)
	childrenByParent := make(map[int][]monthItem)
	for _, item := range sorted {
		category := strings.TrimSpace(item.Category)
		if item.ParentComponentID == 0 {
			if _, seen := parentsByCategory[category]; !seen {
				categoryOrder = append(categoryOrder, category)
			}
			parentsByCategory[category] = append(parentsByCategory[category], item)
		} else {
			childrenByParent[item.ParentComponentID] = append(childrenByParent[item.ParentComponentID], item)
		}
	}

	var lines []string
	for _, category := range categoryOrder {
		if category == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(category))
		for _, item := range parentsByCategory[category] {
			lines = append(lines, "- "+f.norm.Apply(preferredName(item)))
			for _, child := range childrenByParent[item.ComponentID] {
				lines = append(lines, "  - "+f.norm.Apply(preferredName(child)))
			}
		}
		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// dropSides removes side and condiment items; they never drive the title
// and clutter the details.
func dropSides(items []monthItem) []monthItem {
	var kept []monthItem
	for _, item := range items {
		switch strings.ToLower(strings.TrimSpace(item.Category)) {
		case "side", "condiment":
		default:
			kept = append(kept, item)
		}
	}
	return kept
}

// preferredName picks the item's display name: the English name unless it
// is empty or a literal "n/a", then the component name, then a placeholder.
func preferredName(item monthItem) string {
	english := strings.TrimSpace(item.EnglishAlternateName)
	if english == "" {
		english = strings.TrimSpace(item.ComponentEnglishName)
	}
	if english != "" && !strings.EqualFold(english, "n/a") {
		return english
	}
	if name := strings.TrimSpace(item.ComponentName); name != "" {
		return name
	}
	return "Unknown Item"
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var unique []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique
}

// nextMonth returns the first day of the month after t.
func nextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
