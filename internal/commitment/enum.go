package commitment

import (
	"encoding/json"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDismissed Status = "dismissed"
	StatusMissed    Status = "missed"
)

var AllStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusCompleted,
	StatusDismissed,
	StatusMissed,
}

func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsOpen reports whether the commitment still expects work from the user.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusActive
}

type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
)

var AllRecurrencePatterns = []RecurrencePattern{
	RecurrenceNone,
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceMonthly,
}

func (p RecurrencePattern) IsValid() bool {
	for _, v := range AllRecurrencePatterns {
		if p == v {
			return true
		}
	}
	return false
}

type Kind string

const (
	KindOneTime   Kind = "one_time"
	KindRecurring Kind = "recurring"
)

// WeekdayCodes maps the stored weekday codes to time.Weekday ordinals.
var WeekdayCodes = map[string]int{
	"sun": 0,
	"mon": 1,
	"tue": 2,
	"wed": 3,
	"thu": 4,
	"fri": 5,
	"sat": 6,
}

var weekdayOrder = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var weekdayAliases = map[string]string{
	"monday":    "mon",
	"tuesday":   "tue",
	"tues":      "tue",
	"wednesday": "wed",
	"thursday":  "thu",
	"thurs":     "thu",
	"friday":    "fri",
	"saturday":  "sat",
	"sunday":    "sun",
}

// DayList is a set of weekday codes. Over JSON it accepts either an array
// (["mon","wed"]) or the stored comma separated form ("mon,wed").
type DayList []string

func (d *DayList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*d = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = SplitDays(raw)
	return nil
}

func SplitDays(raw string) DayList {
	var out DayList
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeDays lower-cases, resolves aliases, dedupes and orders the codes
// Monday first. The second return value lists codes it did not recognise.
func normalizeDays(days []string) (DayList, []string) {
	seen := make(map[string]bool)
	var invalid []string
	for _, raw := range days {
		code := strings.ToLower(strings.TrimSpace(raw))
		if alias, ok := weekdayAliases[code]; ok {
			code = alias
		}
		if _, ok := WeekdayCodes[code]; !ok {
			invalid = append(invalid, raw)
			continue
		}
		seen[code] = true
	}

	var out DayList
	for _, code := range weekdayOrder {
		if seen[code] {
			out = append(out, code)
		}
	}
	return out, invalid
}
