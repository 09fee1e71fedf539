// Package config holds the sync tool configuration: calendar target, vendor
// parameters, event styling, and the fixed operational limits every
// component receives at construction.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// Operational defaults. The vendor APIs rate-limit aggressively, hence the
// generous retry budget and the fixed delay between calls.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 7
	DefaultRateDelay  = time.Second
	DefaultMaxWeeks   = 8
	DefaultColor      = "grape"
)

// TokenEnvVar is the environment fallback for the calendar access token.
const TokenEnvVar = "CALENDAR_ACCESS_TOKEN"

// calendarColors maps Google Calendar color names to their numeric IDs.
var calendarColors = map[string]string{
	"lavender":  "1",
	"sage":      "2",
	"grape":     "3",
	"flamingo":  "4",
	"banana":    "5",
	"tangerine": "6",
	"peacock":   "7",
	"graphite":  "8",
	"blueberry": "9",
	"basil":     "10",
	"tomato":    "11",
}

// Duration wraps time.Duration so YAML configs can use the human-readable
// string form ("10s", "250ms").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Vendor carries the tenant identifiers the FDMealPlanner API requires.
type Vendor struct {
	AccountID    string `yaml:"account_id"`
	LocationID   string `yaml:"location_id"`
	MealPeriodID string `yaml:"meal_period_id"`
	TenantID     string `yaml:"tenant_id"`
}

// Config is the full sync tool configuration. Values come from the YAML
// config file and are overridden by CLI flags.
type Config struct {
	CalendarID   string   `yaml:"calendar_id"`
	BaseURL      string   `yaml:"base_url"`
	EventPrefix  string   `yaml:"event_prefix"`
	EventColor   string   `yaml:"event_color"`
	Reminder     string   `yaml:"reminder"`
	AccessToken  string   `yaml:"access_token"`
	MaxWeeks     int      `yaml:"max_weeks"`
	Replacements []string `yaml:"replacements"`
	Vendor       Vendor   `yaml:"vendor"`
	Timeout      Duration `yaml:"timeout"`
	MaxRetries   int      `yaml:"max_retries"`
	RateDelay    Duration `yaml:"rate_delay"`
}

// Default returns a Config holding only the operational defaults.
func Default() *Config {
	return &Config{
		EventColor: DefaultColor,
		MaxWeeks:   DefaultMaxWeeks,
		Timeout:    Duration(DefaultTimeout),
		MaxRetries: DefaultMaxRetries,
		RateDelay:  Duration(DefaultRateDelay),
	}
}

// Load reads configuration from the given YAML path. A missing file is not
// an error: everything can come from flags, so the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills missing or zero values with the defaults so that
// partially-filled configs still behave.
func (c *Config) Normalize() {
	if c.EventColor == "" {
		c.EventColor = DefaultColor
	}
	if c.MaxWeeks <= 0 {
		c.MaxWeeks = DefaultMaxWeeks
	}
	if c.Timeout <= 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RateDelay <= 0 {
		c.RateDelay = Duration(DefaultRateDelay)
	}
	if c.AccessToken == "" {
		c.AccessToken = os.Getenv(TokenEnvVar)
	}
}

// ResolveColor resolves the configured color to a Calendar color ID.
// Numeric strings pass through; unknown names warn and fall back to the
// default.
func (c *Config) ResolveColor() string {
	color := strings.TrimSpace(c.EventColor)
	if color != "" && isDigits(color) {
		return color
	}
	if id, ok := calendarColors[strings.ToLower(color)]; ok {
		return id
	}
	logger.Warn("unknown color, using default", "color", c.EventColor, "default", DefaultColor)
	return calendarColors[DefaultColor]
}

// ReminderOverride parses the configured lead time ("15m", "1h", "1d") into
// the popup reminder events should carry. Nil means no reminder; an invalid
// format warns and disables reminders.
func (c *Config) ReminderOverride() *gcal.ReminderOverride {
	s := strings.ToLower(strings.TrimSpace(c.Reminder))
	if s == "" {
		return nil
	}

	var minutes int
	var err error
	switch {
	case strings.Contains(s, "m"):
		minutes, err = strconv.Atoi(strings.ReplaceAll(s, "m", ""))
	case strings.Contains(s, "h"):
		minutes, err = strconv.Atoi(strings.ReplaceAll(s, "h", ""))
		minutes *= 60
	case strings.Contains(s, "d"):
		minutes, err = strconv.Atoi(strings.ReplaceAll(s, "d", ""))
		minutes *= 24 * 60
	default:
		err = fmt.Errorf("no unit suffix")
	}
	if err != nil {
		logger.Warn("invalid reminder format, reminders disabled", "reminder", c.Reminder)
		return nil
	}

	return &gcal.ReminderOverride{Method: "popup", Minutes: minutes}
}

// Rules parses the configured replacement strings. Entries that don't parse
// are skipped with a warning.
func (c *Config) Rules() []menu.Replacement {
	var rules []menu.Replacement
	for _, s := range c.Replacements {
		rule, err := menu.ParseReplacement(s)
		if err != nil {
			logger.Warn("skipping replacement", "err", err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// WholeGrainRules are the stock replacements for menus that tag items with
// "WG" (whole grain).
func WholeGrainRules() []menu.Replacement {
	return []menu.Replacement{
		{Find: " WG", Replace: ""},
		{Find: "WG ", Replace: ""},
		{Find: " WG ", Replace: " "},
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
