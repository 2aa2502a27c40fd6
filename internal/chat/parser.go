package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	util "github.com/saulo-duarte/commitments-api/internal/utils"
)

const timePhrase = `(today|tomorrow|this\s+weekend|this\s+\w+|by\s+next\s+week|by\s+\w+)`

var commitmentPatterns = compileAll(
	`I'll\s+(.+?)\s+`+timePhrase,
	`I\s+will\s+(.+?)\s+`+timePhrase,
	`I\s+(?:really\s+)?need\s+to\s+(.+?)\s+`+timePhrase,
	`I\s+should\s+(.+?)\s+`+timePhrase,
	`I'm\s+going\s+to\s+(.+?)\s+`+timePhrase,
	`I\s+have\s+to\s+(.+?)\s+`+timePhrase,
	`I\s+must\s+(.+?)\s+`+timePhrase,
	`(.+?)\s+needs?\s+to\s+be\s+done\s+`+timePhrase,
)

const dayNames = `(?:mon|tues|wednes|thurs|fri|satur|sun)days?`

var recurringPattern = regexp.MustCompile(`(?i)I(?:'ll|\s+will|\s+want\s+to|'m\s+going\s+to|\s+am\s+going\s+to)\s+(.+?)\s+` +
	`(every\s+day|daily|every\s+morning|every\s+evening|every\s+night|every\s+week|weekly|every\s+month|monthly|` +
	`(?:every|on)\s+` + dayNames + `(?:\s*(?:,|and|&)\s*` + dayNames + `)*)` +
	`(?:\s+at\s+(\d{1,2}(?::\d{2})?\s*(?:am|pm)?))?`)

var dayNamePattern = regexp.MustCompile(`(?i)` + dayNames)

var completionPattern = regexp.MustCompile(`(?i)\b(?:i\s+)?(?:just\s+)?(?:did|finished|completed|done\s+with|went\s+for)\s+(?:my\s+|the\s+|a\s+)?(.+?)(?:\s+today)?[.!]*$`)

var skipPattern = regexp.MustCompile(`(?i)\b(?:skip|skipping|skipped)\s+(?:my\s+|the\s+)?(.+?)(?:\s+today)?[.!]*$`)

var moodPattern = regexp.MustCompile(`(?i)\bI(?:'m|\s+am)\s+(?:feeling\s+|doing\s+)?(?:(really|very|so|super)\s+)?` +
	`(great|amazing|awesome|fantastic|happy|good|fine|ok|okay|meh|tired|down|sad|stressed|bad|awful|terrible|miserable)\b`)

// moodWords scores the words moodPattern accepts. An intensifier moves a
// mood one step away from neutral.
var moodWords = map[string]int{
	"great": 4, "amazing": 5, "awesome": 5, "fantastic": 5, "happy": 4, "good": 4,
	"fine": 3, "ok": 3, "okay": 3, "meh": 3,
	"tired": 2, "down": 2, "sad": 2, "stressed": 2, "bad": 2,
	"awful": 1, "terrible": 1, "miserable": 1,
}

var moodLabels = [...]string{1: "very_negative", 2: "negative", 3: "neutral", 4: "positive", 5: "very_positive"}

var genericTasks = map[string]bool{
	"it": true, "this": true, "that": true, "do it": true, "do this": true,
	"do that": true, "something": true, "do something": true,
}

var stopWords = map[string]bool{
	"i": true, "my": true, "the": true, "a": true, "an": true, "do": true, "did": true,
	"to": true, "go": true, "went": true, "some": true, "today": true, "for": true,
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

type ruleProvider struct{}

// NewRuleProvider returns a Provider that recognises commitment and
// completion phrases without calling a model.
func NewRuleProvider() Provider {
	return ruleProvider{}
}

func (ruleProvider) Generate(ctx context.Context, req Request) (*Reply, error) {
	reply := &Reply{}
	var notes []string

	for _, ex := range extractRecurring(req.Message, req.Now) {
		reply.Commitments = append(reply.Commitments, ex)
		notes = append(notes, fmt.Sprintf("%s (%s)", ex.TaskDescription, ex.RecurrencePattern))
	}
	if len(reply.Commitments) == 0 {
		for _, ex := range extractOneTime(req.Message, req.Now) {
			reply.Commitments = append(reply.Commitments, ex)
			notes = append(notes, fmt.Sprintf("%s by %s", ex.TaskDescription, ex.Deadline))
		}
	}

	var done []string
	if len(reply.Commitments) == 0 {
		if m := skipPattern.FindStringSubmatch(req.Message); m != nil {
			if c := matchOpen(m[1], req.Open); c != nil {
				reply.Actions = append(reply.Actions, Action{Type: ActionSkip, CommitmentID: c.ID.String()})
				done = append(done, "skipping "+c.TaskDescription)
			}
		} else if m := completionPattern.FindStringSubmatch(req.Message); m != nil {
			if c := matchOpen(m[1], req.Open); c != nil {
				reply.Actions = append(reply.Actions, Action{Type: ActionComplete, CommitmentID: c.ID.String()})
				done = append(done, c.TaskDescription)
			}
		}
	}

	reply.Mood = extractMood(req.Message)

	switch {
	case len(notes) > 0:
		reply.Message = "Got it! I'll keep track of: " + strings.Join(notes, "; ") + "."
	case len(reply.Actions) > 0 && reply.Actions[0].Type == ActionSkip:
		reply.Message = "No problem, " + done[0] + " today."
	case len(reply.Actions) > 0:
		reply.Message = "Nice work on " + done[0] + "!"
	case reply.Mood != "":
		reply.Message = "Thanks for telling me how you feel. I've noted it for today."
	default:
		reply.Message = "Thanks for the update. Tell me what you plan to do and when, and I'll keep track of it."
	}
	return reply, nil
}

func extractMood(message string) string {
	m := moodPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	score := moodWords[strings.ToLower(m[2])]
	if m[1] != "" {
		switch {
		case score > 3 && score < 5:
			score++
		case score < 3 && score > 1:
			score--
		}
	}
	return moodLabels[score]
}

func extractOneTime(message string, now time.Time) []ExtractedCommitment {
	var out []ExtractedCommitment
	seen := make(map[string]bool)

	for _, p := range commitmentPatterns {
		for _, m := range p.FindAllStringSubmatch(message, -1) {
			task := cleanTask(m[1])
			key := strings.ToLower(task)
			if len(task) < 3 || genericTasks[key] || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ExtractedCommitment{
				TaskDescription: task,
				Deadline:        ParseDeadline(m[2], now).String(),
			})
		}
	}
	return out
}

func extractRecurring(message string, now time.Time) []ExtractedCommitment {
	m := recurringPattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	task := cleanTask(m[1])
	if len(task) < 3 || genericTasks[strings.ToLower(task)] {
		return nil
	}

	ex := ExtractedCommitment{TaskDescription: task, RecurrencePattern: "daily"}
	phrase := strings.ToLower(m[2])
	switch {
	case strings.Contains(phrase, "month"):
		ex.RecurrencePattern = "monthly"
	case strings.Contains(phrase, "week"):
		ex.RecurrencePattern = "weekly"
		ex.RecurrenceDays = []string{strings.ToLower(now.Weekday().String()[:3])}
	case dayNamePattern.MatchString(phrase):
		ex.RecurrencePattern = "weekly"
		for _, day := range dayNamePattern.FindAllString(phrase, -1) {
			ex.RecurrenceDays = append(ex.RecurrenceDays, strings.ToLower(day[:3]))
		}
	}
	if len(m) > 3 && m[3] != "" {
		ex.DueTime = strings.ToUpper(strings.ReplaceAll(m[3], " ", ""))
	}
	return []ExtractedCommitment{ex}
}

func cleanTask(task string) string {
	task = strings.TrimSpace(task)
	for _, prefix := range []string{"to ", "the "} {
		if len(task) > len(prefix) && strings.EqualFold(task[:len(prefix)], prefix) {
			task = task[len(prefix):]
		}
	}
	for _, suffix := range []string{" though", " but", " however"} {
		if len(task) > len(suffix) && strings.EqualFold(task[len(task)-len(suffix):], suffix) {
			task = task[:len(task)-len(suffix)]
		}
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return task
	}
	r, size := utf8.DecodeRuneInString(task)
	return string(unicode.ToUpper(r)) + task[size:]
}

// ParseDeadline turns a time phrase into a calendar day relative to now.
// Unknown phrases resolve to today.
func ParseDeadline(phrase string, now time.Time) util.Date {
	today := util.DateOf(now)
	p := strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	untilSunday := (7 - int(now.Weekday())) % 7

	switch {
	case p == "today":
		return today
	case p == "tomorrow":
		return today.AddDays(1)
	case p == "this weekend":
		if untilSunday == 0 && now.Hour() >= 18 {
			untilSunday = 7
		}
		return today.AddDays(untilSunday)
	case p == "this week":
		if untilSunday == 0 {
			untilSunday = 7
		}
		return today.AddDays(untilSunday)
	case p == "by next week":
		return today.AddDays(untilSunday + 7)
	case strings.HasPrefix(p, "this "), strings.HasPrefix(p, "by "):
		name := p[strings.Index(p, " ")+1:]
		if wd, ok := weekdays[name]; ok {
			return nextWeekday(now, wd)
		}
	}
	return today
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// nextWeekday returns the next wd strictly after today.
func nextWeekday(now time.Time, wd time.Weekday) util.Date {
	ahead := int(wd) - int(now.Weekday())
	if ahead <= 0 {
		ahead += 7
	}
	return util.DateOf(now).AddDays(ahead)
}

// matchOpen finds the open commitment whose description shares its
// significant words with phrase.
func matchOpen(phrase string, open []OpenCommitment) *OpenCommitment {
	needle := significantWords(phrase)
	if needle == "" {
		return nil
	}
	for i := range open {
		hay := significantWords(open[i].TaskDescription)
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return &open[i]
		}
	}
	return nil
}

func significantWords(s string) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:'\"")
		if w != "" && !stopWords[w] {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
