package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/lunch-menu-sync/internal/gcal"
	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

func main() {
	// Build the event the sync tool would create for a sample menu day
	date := menu.Midnight(time.Now())
	for menu.IsWeekend(date) {
		date = date.AddDate(0, 0, 1)
	}

	ev := &gcal.Event{
		Summary:     "FRHL: Cheese Pizza",
		Description: "LUNCH ENTRÉE\n- Cheese Pizza\n\nVEGETABLE\n- Garden Salad",
		ColorID:     "3",
		Start:       &gcal.EventDate{Date: date.Format(menu.DateLayout)},
		End:         &gcal.EventDate{Date: date.AddDate(0, 0, 1).Format(menu.DateLayout)},
		Reminders: &gcal.Reminders{
			UseDefault: false,
			Overrides:  []gcal.ReminderOverride{},
		},
	}

	body, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding event: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Calendar API payload the sync tool would POST:")
	fmt.Println("---")
	fmt.Println(string(body))
	fmt.Println("---")
	fmt.Println("Verify the reminders block reads {\"useDefault\": false, \"overrides\": []}")
	fmt.Println("and that start/end are date-only with an exclusive end.")
}
