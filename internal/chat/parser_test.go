package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	util "github.com/saulo-duarte/commitments-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday morning.
var testNow = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func TestParseDeadline(t *testing.T) {
	cases := map[string]util.Date{
		"today":          util.NewDate(2025, time.June, 11),
		"tomorrow":       util.NewDate(2025, time.June, 12),
		"this weekend":   util.NewDate(2025, time.June, 15),
		"this week":      util.NewDate(2025, time.June, 15),
		"by next week":   util.NewDate(2025, time.June, 22),
		"by Friday":      util.NewDate(2025, time.June, 13),
		"by monday":      util.NewDate(2025, time.June, 16),
		"this Wednesday": util.NewDate(2025, time.June, 18),
		"this morning":   util.NewDate(2025, time.June, 11),
	}

	for phrase, want := range cases {
		t.Run(phrase, func(t *testing.T) {
			got := ParseDeadline(phrase, testNow)
			assert.Equal(t, want.String(), got.String())
		})
	}
}

func TestRuleProviderExtractsOneTimeCommitments(t *testing.T) {
	cases := []struct {
		message  string
		task     string
		deadline string
	}{
		{"I'll call mom tomorrow", "Call mom", "2025-06-12"},
		{"I need to finish the report by Friday", "Finish the report", "2025-06-13"},
		{"I should clean the garage this weekend", "Clean the garage", "2025-06-15"},
		{"The car needs to be done today", "Car", "2025-06-11"},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: tc.message, Now: testNow})
			require.NoError(t, err)
			require.Len(t, reply.Commitments, 1)
			assert.Equal(t, tc.task, reply.Commitments[0].TaskDescription)
			assert.Equal(t, tc.deadline, reply.Commitments[0].Deadline)
			assert.Contains(t, reply.Message, tc.task)
		})
	}
}

func TestRuleProviderIgnoresGenericTasks(t *testing.T) {
	reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: "I'll do it tomorrow", Now: testNow})
	require.NoError(t, err)
	assert.Empty(t, reply.Commitments)
	assert.Empty(t, reply.Actions)
	assert.NotEmpty(t, reply.Message)
}

func TestRuleProviderExtractsRecurring(t *testing.T) {
	reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: "I will meditate every morning at 7am", Now: testNow})
	require.NoError(t, err)
	require.Len(t, reply.Commitments, 1)
	ex := reply.Commitments[0]
	assert.Equal(t, "Meditate", ex.TaskDescription)
	assert.Equal(t, "daily", ex.RecurrencePattern)
	assert.Equal(t, "7AM", ex.DueTime)
	assert.Empty(t, ex.Deadline)

	reply, err = NewRuleProvider().Generate(context.Background(), Request{Message: "I'm going to run on Mondays and Thursdays", Now: testNow})
	require.NoError(t, err)
	require.Len(t, reply.Commitments, 1)
	assert.Equal(t, "weekly", reply.Commitments[0].RecurrencePattern)
	assert.Equal(t, []string{"mon", "thu"}, reply.Commitments[0].RecurrenceDays)

	reply, err = NewRuleProvider().Generate(context.Background(), Request{Message: "I'll review my budget every week", Now: testNow})
	require.NoError(t, err)
	require.Len(t, reply.Commitments, 1)
	assert.Equal(t, []string{"wed"}, reply.Commitments[0].RecurrenceDays)
}

func TestRuleProviderMatchesOpenCommitments(t *testing.T) {
	workout := OpenCommitment{ID: uuid.New(), TaskDescription: "Workout", IsRecurring: true}
	gym := OpenCommitment{ID: uuid.New(), TaskDescription: "Go to the gym", IsRecurring: true}
	open := []OpenCommitment{workout, gym}

	reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: "I just finished my workout!", Now: testNow, Open: open})
	require.NoError(t, err)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionComplete, reply.Actions[0].Type)
	assert.Equal(t, workout.ID.String(), reply.Actions[0].CommitmentID)
	assert.Equal(t, "Nice work on Workout!", reply.Message)

	reply, err = NewRuleProvider().Generate(context.Background(), Request{Message: "Skipping the gym today", Now: testNow, Open: open})
	require.NoError(t, err)
	require.Len(t, reply.Actions, 1)
	assert.Equal(t, ActionSkip, reply.Actions[0].Type)
	assert.Equal(t, gym.ID.String(), reply.Actions[0].CommitmentID)

	reply, err = NewRuleProvider().Generate(context.Background(), Request{Message: "I did the dishes", Now: testNow, Open: open})
	require.NoError(t, err)
	assert.Empty(t, reply.Actions)
}

func TestRuleProviderExtractsMood(t *testing.T) {
	cases := map[string]string{
		"I'm feeling great":             "positive",
		"I am really good today":        "very_positive",
		"I'm so tired":                  "very_negative",
		"i'm feeling meh":               "neutral",
		"I am terrible at this":         "very_negative",
		"I'm going to run every day":    "",
		"Thanks, that was helpful":      "",
		"I'm doing okay, just finished": "neutral",
	}

	for message, want := range cases {
		t.Run(message, func(t *testing.T) {
			reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: message, Now: testNow})
			require.NoError(t, err)
			assert.Equal(t, want, reply.Mood)
		})
	}

	reply, err := NewRuleProvider().Generate(context.Background(), Request{Message: "I'm feeling down", Now: testNow})
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "how you feel")
}

func TestDecodeReplyStripsFences(t *testing.T) {
	reply, err := decodeReply("```json\n{\"message\":\"hi\",\"commitments\":[{\"task_description\":\"x\"}]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Message)
	assert.Len(t, reply.Commitments, 1)

	_, err = decodeReply("not json")
	assert.Error(t, err)
}
