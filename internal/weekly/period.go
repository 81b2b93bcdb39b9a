// Package weekly implements the weekly close-out: it exports last week's
// orders from the ticketing platform, aggregates them per event, and maps the
// results onto ledger lines for the bookkeeping platform.
package weekly

import (
	"fmt"
	"time"
)

// LastMonday returns the most recent Monday at midnight in loc. If today is
// Monday, that is today.
func LastMonday(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	// time.Weekday numbers Sunday as 0.
	daysSinceMonday := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -daysSinceMonday)
}

// ExportPeriod returns the start and end of the export window beginning at
// monday: the Monday itself and the following Sunday, both at midnight. The
// window is inclusive on both ends.
//
// Fails if monday is not actually a Monday; the callers compute it with
// LastMonday, so this guards against logic errors only.
func ExportPeriod(monday time.Time) (start, end time.Time, err error) {
	if monday.Weekday() != time.Monday {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"weekly: the 'Monday' provided is not actually a Monday, but a %s", monday.Weekday())
	}

	start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
	end = start.AddDate(0, 0, 6)
	return start, end, nil
}
