package analytics

import (
	"math"
	"sort"

	"github.com/saulo-duarte/commitments-api/internal/commitment"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

// qualifyingDays collects the days with at least one non-skipped completion.
// A skipped row never qualifies, so it breaks a streak like a missing day.
func qualifyingDays(completions []commitment.Completion) map[string]bool {
	days := make(map[string]bool, len(completions))
	for _, cc := range completions {
		if !cc.Skipped {
			days[cc.CompletionDate.String()] = true
		}
	}
	return days
}

// CurrentStreak counts consecutive qualifying days back from today. When today
// has no qualifying completion yet the count starts at yesterday.
func CurrentStreak(completions []commitment.Completion, today util.Date) int {
	days := qualifyingDays(completions)

	day := today
	if !days[day.String()] {
		day = day.AddDays(-1)
	}

	streak := 0
	for days[day.String()] {
		streak++
		day = day.AddDays(-1)
	}
	return streak
}

func LongestStreak(completions []commitment.Completion) int {
	days := qualifyingDays(completions)
	if len(days) == 0 {
		return 0
	}

	sorted := make([]util.Date, 0, len(days))
	for raw := range days {
		d, err := util.ParseDate(raw)
		if err != nil {
			continue
		}
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysUntil(sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// QualifyingDaysBetween counts qualifying days inside [from, to].
func QualifyingDaysBetween(completions []commitment.Completion, from, to util.Date) int {
	n := 0
	for raw := range qualifyingDays(completions) {
		d, err := util.ParseDate(raw)
		if err != nil {
			continue
		}
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n
}

// DaysInRange is the inclusive number of days in [from, to], 0 when from is
// after to.
func DaysInRange(from, to util.Date) int {
	if from.After(to) {
		return 0
	}
	return from.DaysUntil(to) + 1
}

// Rate returns part/whole rounded to two decimals, 0 when whole is 0.
func Rate(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100) / 100
}
