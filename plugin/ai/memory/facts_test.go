package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deskwise/deskwise/plugin/ai"
)

func TestExtractFacts(t *testing.T) {
	testCases := []struct {
		name     string
		messages []ai.Message
		want     map[string]string
	}{
		{
			name: "stated_name",
			messages: []ai.Message{
				ai.UserMessage("Hi, my name is priya"),
			},
			want: map[string]string{FactKeyUserName: "Priya"},
		},
		{
			name: "contraction",
			messages: []ai.Message{
				ai.UserMessage("I'm Marcus, show me my inbox"),
			},
			want: map[string]string{FactKeyUserName: "Marcus"},
		},
		{
			name: "later_message_wins",
			messages: []ai.Message{
				ai.UserMessage("my name is Alice"),
				ai.AssistantMessage("Hello Alice"),
				ai.UserMessage("actually, call me Bob"),
			},
			want: map[string]string{FactKeyUserName: "Bob"},
		},
		{
			name: "assistant_messages_ignored",
			messages: []ai.Message{
				ai.AssistantMessage("my name is Deskwise"),
			},
			want: map[string]string{},
		},
		{
			name: "no_facts",
			messages: []ai.Message{
				ai.UserMessage("show me unpaid invoices"),
			},
			want: map[string]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractFacts(tc.messages))
		})
	}
}

func TestReminders(t *testing.T) {
	require.Empty(t, Reminders(nil))

	out := Reminders(map[string]string{FactKeyUserName: "Priya"})
	require.Contains(t, out, "REMEMBERED FACTS")
	require.Contains(t, out, "Priya")
}
