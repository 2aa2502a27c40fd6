package chat

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = `
You are a supportive assistant that helps a user keep their commitments and habits.

Reply with a single JSON object and nothing else:

{
  "message": "<short, warm reply to the user>",
  "commitments": [
    {
      "task_description": "<what the user committed to>",
      "deadline": "<YYYY-MM-DD, one-time commitments only>",
      "recurrence_pattern": "<none | daily | weekly | monthly>",
      "recurrence_interval": 1,
      "recurrence_days": ["mon", "wed"],
      "due_time": "<HH:MM, recurring commitments only>"
    }
  ],
  "actions": [
    {"type": "<complete | skip>", "commitment_id": "<id from the open list>", "notes": "<optional>"}
  ],
  "mood": "<very_negative | negative | neutral | positive | very_positive, optional>",
  "mood_notes": "<optional>"
}

Rules:
1. Only add a commitment when the user clearly says they will do something.
2. Resolve relative dates ("tomorrow", "by Friday") against the current date given below.
3. Recurring commitments never carry a deadline; one-time commitments never carry recurrence fields.
4. recurrence_days is only used with the weekly pattern, with codes mon, tue, wed, thu, fri, sat, sun.
5. Only emit a complete or skip action for an id from the open commitments list.
6. Never invent commitments the user did not mention. Empty lists are fine.
7. Do not add a commitment that is already in the open list; act on the existing one instead.
8. Only set mood when the user says how they feel. Leave it out otherwise.
`

func BuildUserPrompt(message string, now time.Time, open []OpenCommitment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current date: %s (%s), time %s.\n", now.Format("2006-01-02"), now.Weekday(), now.Format("15:04"))

	if len(open) == 0 {
		b.WriteString("The user has no open commitments.\n")
	} else {
		b.WriteString("Open commitments:\n")
		for _, c := range open {
			kind := "one-time"
			if c.IsRecurring {
				kind = "recurring"
			}
			fmt.Fprintf(&b, "- id=%s | %s | %s", c.ID, c.TaskDescription, kind)
			if c.DeadlineDisplay != "" {
				fmt.Fprintf(&b, " | %s", c.DeadlineDisplay)
			}
			if c.CompletedToday {
				b.WriteString(" | done today")
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nUser message:\n%s\n", message)
	return b.String()
}
