package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/cleanup"
	"github.com/pfrederiksen/lunch-menu-sync/internal/config"
	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

var (
	calendarID = flag.String("calendar-id", "", "Google Calendar ID (required)")
	prefix     = flag.String("event-prefix", "FRHL: ", "Event title prefix to match")
	startDate  = flag.String("start-date", "", "Start of search range (YYYY-MM-DD, default one year ago)")
	endDate    = flag.String("end-date", "", "End of search range (YYYY-MM-DD, default one year ahead)")
	doDelete   = flag.Bool("delete", false, "Actually delete duplicates (default is a preview)")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	if err := logger.SetLevel(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *calendarID == "" {
		fmt.Fprintln(os.Stderr, "Error: --calendar-id is required")
		os.Exit(1)
	}

	token := os.Getenv(config.TokenEnvVar)
	if token == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is not set\n", config.TokenEnvVar)
		os.Exit(1)
	}

	from, to, err := searchRange()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := gcal.NewClient(token, config.DefaultTimeout)
	cleaner := cleanup.New(store, *calendarID, *prefix, config.DefaultRateDelay)

	duplicates, err := cleaner.FindDuplicates(ctx, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(duplicates) == 0 {
		fmt.Println("No duplicate events found")
		return
	}

	total := 0
	for _, dup := range duplicates {
		total += dup.Extra()
	}
	fmt.Printf("Found duplicates on %d dates (%d events to delete)\n", len(duplicates), total)

	preview := !*doDelete
	deleted, errs := cleaner.Run(ctx, duplicates, preview)

	if preview {
		fmt.Printf("Preview complete: %d events would be deleted (rerun with --delete)\n", total)
		return
	}
	fmt.Printf("Cleanup complete: %d deleted, %d errors\n", deleted, errs)
	if errs > 0 {
		os.Exit(1)
	}
}

// searchRange resolves the cleanup window, defaulting to a year either side
// of today.
func searchRange() (time.Time, time.Time, error) {
	now := menu.Midnight(time.Now())
	from := now.AddDate(-1, 0, 0)
	to := now.AddDate(1, 0, 0)

	var err error
	if *startDate != "" {
		from, err = time.Parse(menu.DateLayout, *startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", *startDate)
		}
	}
	if *endDate != "" {
		to, err = time.Parse(menu.DateLayout, *endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", *endDate)
		}
	}
	return from, to, nil
}
