package mapper

import (
	"time"

	"github.com/kwhite/taskpulse/internal/models"
)

// dueDateLayouts are the accepted due-date formats, tried in order
var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

// Categorize buckets a due date relative to now's calendar day in local
// time. It is pure and never fails: an empty or unparseable due date
// falls back to today's bucket. A due date exactly one day in the past
// is tagged Yesterday; anything older is tagged Overdue.
func Categorize(dueDate string, now time.Time) (models.TaskGroup, models.TaskTag) {
	if dueDate == "" {
		return models.GroupToday, models.TagToday
	}

	due, ok := parseDueDate(dueDate, now.Location())
	if !ok {
		return models.GroupToday, models.TagToday
	}

	today := truncateToDay(now)
	due = truncateToDay(due)

	switch {
	case due.Before(today):
		if today.AddDate(0, 0, -1).Equal(due) {
			return models.GroupOverdue, models.TagYesterday
		}
		return models.GroupOverdue, models.TagOverdue
	case due.After(today):
		return models.GroupUpcoming, models.TagUpcoming
	default:
		return models.GroupToday, models.TagToday
	}
}

func parseDueDate(value string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncateToDay zeroes the time-of-day component in the value's location
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
