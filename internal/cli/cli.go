package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/lunch-menu-sync/internal/config"
	"github.com/pfrederiksen/lunch-menu-sync/internal/feed"
	"github.com/pfrederiksen/lunch-menu-sync/internal/fetch"
	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
	"github.com/pfrederiksen/lunch-menu-sync/internal/sync"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig       string
	flagBaseURL      string
	flagCalendarID   string
	flagEventPrefix  string
	flagEventColor   string
	flagReminder     string
	flagStartDate    string
	flagMaxWeeks     int
	flagDryRun       bool
	flagLogLevel     string
	flagReplacements []string
	flagReplaceWG    bool
	flagAccountID    string
	flagLocationID   string
	flagMealPeriodID string
	flagTenantID     string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lunch-menu-sync",
		Short: "Sync school lunch menus to a Google Calendar",
		Long: `Fetches lunch menus from a vendor menu API (NutriSlice or FDMealPlanner)
and syncs them with a Google Calendar as all-day events. Runs are idempotent:
existing events are updated only when they drift from the collected menu.`,
		SilenceUsage: true,
		RunE:         runSync,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.Flags().StringVarP(&flagBaseURL, "base-url", "u", "", "Base URL for the menu API (required)")
	cmd.Flags().StringVarP(&flagCalendarID, "calendar-id", "c", "", "Google Calendar ID (required unless --dry-run)")
	cmd.Flags().StringVarP(&flagEventPrefix, "event-prefix", "p", "", "Event title prefix")
	cmd.Flags().StringVarP(&flagEventColor, "event-color", "o", "", "Calendar color name or numeric ID")
	cmd.Flags().StringVar(&flagReminder, "reminder", "", `Reminder lead time ("15m", "1h", "1d")`)
	cmd.Flags().StringVarP(&flagStartDate, "start-date", "s", "", "Start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVarP(&flagMaxWeeks, "max-weeks", "w", 0, "Maximum weeks to check ahead")
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "x", false, "Only collect menus, skip calendar sync")
	cmd.Flags().StringVarP(&flagLogLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	cmd.Flags().StringArrayVarP(&flagReplacements, "replace", "R", nil, `Text replacement "find->replace" (repeatable)`)
	cmd.Flags().BoolVar(&flagReplaceWG, "replace-wg", false, "Apply the stock whole-grain (WG) replacements")
	cmd.Flags().StringVarP(&flagAccountID, "account-id", "a", "", "FDMealPlanner account ID")
	cmd.Flags().StringVarP(&flagLocationID, "location-id", "i", "", "FDMealPlanner location ID")
	cmd.Flags().StringVarP(&flagMealPeriodID, "meal-period-id", "m", "", "FDMealPlanner meal period ID")
	cmd.Flags().StringVarP(&flagTenantID, "tenant-id", "e", "", "FDMealPlanner tenant ID")

	return cmd
}

// runSync is the main command logic
func runSync(cmd *cobra.Command, args []string) error {
	if err := logger.SetLevel(flagLogLevel); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("--base-url is required")
	}
	if !flagDryRun && cfg.CalendarID == "" {
		return fmt.Errorf("--calendar-id is required unless using --dry-run")
	}
	if !flagDryRun && cfg.AccessToken == "" {
		return fmt.Errorf("calendar access token missing (set %s or access_token in the config file)", config.TokenEnvVar)
	}

	start, err := startDate()
	if err != nil {
		return err
	}

	rules := cfg.Rules()
	if flagReplaceWG {
		rules = append(rules, config.WholeGrainRules()...)
	}

	client := fetch.New(cfg.Timeout.Std(), cfg.MaxRetries, cfg.RateDelay.Std())
	source, err := feed.New(cfg.BaseURL, feed.MonthFeedParams{
		AccountID:    cfg.Vendor.AccountID,
		LocationID:   cfg.Vendor.LocationID,
		MealPeriodID: cfg.Vendor.MealPeriodID,
		TenantID:     cfg.Vendor.TenantID,
	}, client, menu.NewNormalizer(rules), cfg.RateDelay.Std())
	if err != nil {
		return err
	}
	if err := source.ValidateConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := source.CollectMenus(ctx, start, cfg.MaxWeeks)
	if err != nil {
		return fmt.Errorf("collecting menus: %w", err)
	}

	if flagDryRun {
		WriteRecords(os.Stdout, records)
		return nil
	}

	store := gcal.NewClient(cfg.AccessToken, cfg.Timeout.Std())
	reconciler := sync.NewReconciler(store, cfg.CalendarID, cfg.EventPrefix,
		cfg.ResolveColor(), cfg.ReminderOverride(), cfg.RateDelay.Std())
	stats, err := reconciler.Reconcile(ctx, records)
	if err != nil {
		fmt.Printf("Sync interrupted: %s\n", stats)
		os.Exit(ExitError)
	}

	fmt.Printf("Sync completed: %s\n", stats)
	if stats.Errors > 0 {
		os.Exit(ExitError)
	}
	return nil
}

// loadConfig reads the config file (if any) and overlays the flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagCalendarID != "" {
		cfg.CalendarID = flagCalendarID
	}
	if flagEventPrefix != "" {
		cfg.EventPrefix = flagEventPrefix
	}
	if flagEventColor != "" {
		cfg.EventColor = flagEventColor
	}
	if flagReminder != "" {
		cfg.Reminder = flagReminder
	}
	if flagMaxWeeks > 0 {
		cfg.MaxWeeks = flagMaxWeeks
	}
	if len(flagReplacements) > 0 {
		cfg.Replacements = append(cfg.Replacements, flagReplacements...)
	}
	if flagAccountID != "" {
		cfg.Vendor.AccountID = flagAccountID
	}
	if flagLocationID != "" {
		cfg.Vendor.LocationID = flagLocationID
	}
	if flagMealPeriodID != "" {
		cfg.Vendor.MealPeriodID = flagMealPeriodID
	}
	if flagTenantID != "" {
		cfg.Vendor.TenantID = flagTenantID
	}

	cfg.Normalize()
	return cfg, nil
}

// startDate resolves the collection floor: the --start-date flag, or today
// at midnight. Time-of-day is never compared.
func startDate() (time.Time, error) {
	if flagStartDate == "" {
		return menu.Midnight(time.Now()), nil
	}
	start, err := time.Parse(menu.DateLayout, flagStartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", flagStartDate)
	}
	return start, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
