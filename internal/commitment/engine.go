package commitment

import (
	"fmt"
	"time"

	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

// The functions in this file derive state from a commitment, its completion
// rows and an explicit "now". They never touch storage.

const (
	PriorityOverdue  = 1
	PriorityDueToday = 2
	PriorityOpen     = 3
	PriorityClosed   = 4
)

func IsRecurring(c *Commitment) bool {
	return c.RecurrencePattern != "" && c.RecurrencePattern != RecurrenceNone
}

// CompletedOn reports whether a non-skipped completion exists for day.
func CompletedOn(completions []Completion, day util.Date) bool {
	for _, cc := range completions {
		if !cc.Skipped && cc.CompletionDate.Equal(day) {
			return true
		}
	}
	return false
}

// HandledOn reports whether any completion row, skipped or not, exists for day.
func HandledOn(completions []Completion, day util.Date) bool {
	for _, cc := range completions {
		if cc.CompletionDate.Equal(day) {
			return true
		}
	}
	return false
}

// IsOverdue treats an active recurring commitment with no row for today as
// overdue, the same as "not yet done today".
func IsOverdue(c *Commitment, now time.Time, completions []Completion) bool {
	today := util.DateOf(now)
	if IsRecurring(c) {
		return c.Status == StatusActive && !HandledOn(completions, today)
	}
	return c.Status == StatusPending && c.Deadline != nil && c.Deadline.Before(today)
}

func IsDueToday(c *Commitment, now time.Time, completions []Completion) bool {
	today := util.DateOf(now)
	if IsRecurring(c) {
		return c.Status == StatusActive && !HandledOn(completions, today)
	}
	return c.Status == StatusPending && c.Deadline != nil && c.Deadline.Equal(today)
}

func FormatDeadline(c *Commitment, now time.Time) string {
	if IsRecurring(c) {
		if c.DueTime != nil && *c.DueTime != "" {
			return "Due at " + *c.DueTime
		}
		return ""
	}
	if c.Deadline == nil {
		return ""
	}

	days := util.DateOf(now).DaysUntil(*c.Deadline)
	switch {
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	case days == -1:
		return "1 day overdue"
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days <= 7:
		return fmt.Sprintf("Due in %d days", days)
	default:
		return "Due " + c.Deadline.Format("Jan 2, 2006")
	}
}

func Priority(c *Commitment, now time.Time, completions []Completion) int {
	switch {
	case IsOverdue(c, now, completions):
		return PriorityOverdue
	case IsDueToday(c, now, completions):
		return PriorityDueToday
	case c.Status.IsOpen():
		return PriorityOpen
	default:
		return PriorityClosed
	}
}

// IsScheduledOn reports whether the recurrence places an occurrence on day.
// Occurrences are anchored at the creation date as seen in loc; one-time
// commitments are scheduled on their deadline.
func IsScheduledOn(c *Commitment, day util.Date, loc *time.Location) bool {
	if !IsRecurring(c) {
		return c.Deadline != nil && c.Deadline.Equal(day)
	}

	anchor := util.DateIn(c.CreatedAt, loc)
	if day.Before(anchor) {
		return false
	}
	interval := c.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}

	switch c.RecurrencePattern {
	case RecurrenceDaily:
		return anchor.DaysUntil(day)%interval == 0
	case RecurrenceWeekly:
		if !containsWeekday(c.Days(), day.Weekday()) {
			return false
		}
		weeks := startOfWeek(anchor).DaysUntil(startOfWeek(day)) / 7
		return weeks%interval == 0
	case RecurrenceMonthly:
		months := (day.Year()-anchor.Year())*12 + int(day.Month()-anchor.Month())
		if months%interval != 0 {
			return false
		}
		target := anchor.Day()
		if last := daysInMonth(day.Year(), day.Month()); target > last {
			target = last
		}
		return day.Day() == target
	default:
		return false
	}
}

func containsWeekday(days DayList, wd time.Weekday) bool {
	for _, code := range days {
		if n, ok := WeekdayCodes[code]; ok && n == int(wd) {
			return true
		}
	}
	return false
}

// startOfWeek returns the Monday on or before d.
func startOfWeek(d util.Date) util.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
