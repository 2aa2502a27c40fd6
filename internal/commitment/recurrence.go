package commitment

import (
	"fmt"
	"strings"
	"time"

	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

const maxRecurrenceInterval = 365

type Recurrence struct {
	Pattern  RecurrencePattern
	Interval int
	Days     DayList
	DueTime  *string
}

// schedule is the validated timing of a commitment.
type schedule struct {
	Deadline   *util.Date
	Recurrence Recurrence
}

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// normalizeSchedule validates a deadline/recurrence combination and returns
// it in stored form.
func normalizeSchedule(deadline *util.Date, r Recurrence) (schedule, error) {
	pattern := RecurrencePattern(strings.ToLower(strings.TrimSpace(string(r.Pattern))))
	if pattern == "" {
		pattern = RecurrenceNone
	}
	if !pattern.IsValid() {
		return schedule{}, validationErr("unknown recurrence_pattern %q", r.Pattern)
	}

	interval := r.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 || interval > maxRecurrenceInterval {
		return schedule{}, validationErr("recurrence_interval must be between 1 and %d", maxRecurrenceInterval)
	}

	dueTime, err := normalizeDueTime(r.DueTime)
	if err != nil {
		return schedule{}, err
	}

	if pattern == RecurrenceNone {
		if len(r.Days) > 0 {
			return schedule{}, validationErr("recurrence_days requires the weekly pattern")
		}
		if dueTime != nil {
			return schedule{}, validationErr("due_time is only valid for recurring commitments")
		}
		if interval != 1 {
			return schedule{}, validationErr("recurrence_interval requires a recurring pattern")
		}
		return schedule{Deadline: deadline, Recurrence: Recurrence{Pattern: RecurrenceNone, Interval: 1}}, nil
	}

	if deadline != nil {
		return schedule{}, validationErr("recurring commitments use due_time, not deadline")
	}

	var days DayList
	switch pattern {
	case RecurrenceWeekly:
		normalized, invalid := normalizeDays(r.Days)
		if len(invalid) > 0 {
			return schedule{}, validationErr("unknown weekday codes: %s", strings.Join(invalid, ", "))
		}
		if len(normalized) == 0 {
			return schedule{}, validationErr("weekly recurrence requires at least one day")
		}
		days = normalized
	default:
		if len(r.Days) > 0 {
			return schedule{}, validationErr("recurrence_days requires the weekly pattern")
		}
	}

	return schedule{Recurrence: Recurrence{
		Pattern:  pattern,
		Interval: interval,
		Days:     days,
		DueTime:  dueTime,
	}}, nil
}

func normalizeDueTime(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"15:04", "15:04:05", "15", "3:04PM", "3:04 PM", "3PM", "3 PM"} {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			formatted := t.Format("15:04")
			return &formatted, nil
		}
	}
	return nil, validationErr("due_time must look like HH:MM")
}
