package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/lunch-menu-sync/internal/menu"
)

// WriteRecords prints the collected menus in the dry-run format: one line
// per date, details indented underneath.
func WriteRecords(w io.Writer, records []menu.Record) {
	fmt.Fprintf(w, "Dry run completed: found %d menu items:\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(w, "  %s: %s\n", rec.DateKey(), rec.Title)
		if rec.Details == "" {
			continue
		}
		for _, line := range strings.Split(rec.Details, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}
