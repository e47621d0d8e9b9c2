package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyIntent(t *testing.T) {
	testCases := []struct {
		name      string
		utterance string
		want      Intent
	}{
		{
			name:      "retrieval_only",
			utterance: "what is our total expenditure this quarter",
			want:      IntentRetrieval,
		},
		{
			name:      "inbox_only",
			utterance: "check my inbox for anything unread",
			want:      IntentInbox,
		},
		{
			name:      "undecided",
			utterance: "hello there, how are you",
			want:      IntentUndecided,
		},
		{
			// Both tables fire; ambiguity resolves to inbox.
			name:      "both_fire_inbox_wins",
			utterance: "any emails about the invoice from acme",
			want:      IntentInbox,
		},
		{
			// Compose intent overrides: the user wants to produce an email
			// from document content, not search the inbox.
			name:      "compose_override_forces_retrieval",
			utterance: "draft an email about this invoice",
			want:      IntentRetrieval,
		},
		{
			name:      "compose_reply_variant",
			utterance: "write a reply email summarizing the billing report",
			want:      IntentRetrieval,
		},
		{
			name:      "reviews_are_retrieval",
			utterance: "summarize the negative reviews",
			want:      IntentRetrieval,
		},
		{
			name:      "correspondence_is_inbox",
			utterance: "show recent client correspondence",
			want:      IntentInbox,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyIntent(tc.utterance))
		})
	}
}

func TestDirective(t *testing.T) {
	require.Empty(t, Directive(IntentUndecided, "hello"))

	retrieval := Directive(IntentRetrieval, "show invoices")
	require.Contains(t, retrieval, ToolNameDocumentSearch)
	require.Contains(t, retrieval, "show invoices")

	inbox := Directive(IntentInbox, "check my mail")
	require.Contains(t, inbox, ToolNameInboxIntelligence)
}
