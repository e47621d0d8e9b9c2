package inbox

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/deskwise/deskwise/plugin/ai"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) ChatStream(_ context.Context, _ []ai.Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)
	close(contentChan)
	close(errChan)
	return contentChan, errChan
}

func (f *fakeLLM) ChatWithTools(_ context.Context, _ []ai.Message, _ []ai.ToolDescriptor) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{Content: f.response}, f.err
}

func TestAnalyzeCleanResponse(t *testing.T) {
	llm := &fakeLLM{response: `{"type":"invoice","suggested_action":"pay","vendor":"Acme","amount":"$120","due_date":"2026-09-15","sentiment":"neutral"}`}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	analysis := analyzer.Analyze(context.Background(), &Email{Subject: "Invoice #42", Sender: "billing@acme.com"})
	require.Equal(t, "invoice", analysis.Type)
	require.Equal(t, "Acme", analysis.Vendor)
	require.Equal(t, "high", analysis.Priority)
	require.Equal(t, "Invoice #42", analysis.Subject)
	require.Equal(t, "billing@acme.com", analysis.Sender)
}

func TestAnalyzeFencedResponse(t *testing.T) {
	llm := &fakeLLM{response: "```json\n{\"type\":\"review\",\"suggested_action\":\"respond\",\"sentiment\":\"negative\"}\n```"}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	analysis := analyzer.Analyze(context.Background(), &Email{Subject: "Feedback"})
	require.Equal(t, "review", analysis.Type)
	require.Equal(t, "negative", analysis.Sentiment)
}

func TestAnalyzeProseWrappedResponse(t *testing.T) {
	llm := &fakeLLM{response: `Here is the analysis: {"type":"event","suggested_action":"rsvp","sentiment":"neutral"} hope that helps`}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	analysis := analyzer.Analyze(context.Background(), &Email{Subject: "Conference"})
	require.Equal(t, "event", analysis.Type)
	require.Equal(t, "medium", analysis.Priority)
}

func TestAnalyzeFallbackOnGarbage(t *testing.T) {
	llm := &fakeLLM{response: "sorry, I cannot do that"}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	analysis := analyzer.Analyze(context.Background(), &Email{Subject: "Your invoice is ready", Sender: "acme"})
	require.Equal(t, "invoice", analysis.Type)
	require.Equal(t, "review manually", analysis.SuggestedAction)
	require.Equal(t, "neutral", analysis.Sentiment)
	// No due date extracted, so an invoice stays at medium.
	require.Equal(t, "medium", analysis.Priority)
}

func TestAnalyzeFallbackCategories(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	tests := []struct {
		subject      string
		wantType     string
		wantPriority string
	}{
		{"Invitation to connect", "networking", "low"},
		{"Webinar next week", "event", "medium"},
		{"Big sale: 50% discount", "promotional", "low"},
		{"Quarterly update", "other", "low"},
	}
	for _, tt := range tests {
		analysis := analyzer.Analyze(context.Background(), &Email{Subject: tt.subject})
		require.Equal(t, tt.wantType, analysis.Type, tt.subject)
		require.Equal(t, tt.wantPriority, analysis.Priority, tt.subject)
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	llm := &fakeLLM{response: `{"type":"other","suggested_action":"ignore","sentiment":"neutral"}`}
	analyzer := NewAnalyzer(llm, nil)
	defer analyzer.Close()

	email := &Email{Subject: "Hello", Sender: "a@b.c", Body: "hi"}
	analyzer.Analyze(context.Background(), email)
	analyzer.Analyze(context.Background(), email)
	require.Equal(t, 1, llm.calls)
}

func TestTruncateBodyRuneBoundary(t *testing.T) {
	require.Equal(t, "short", truncateBody("short", 10))

	// A multibyte rune straddling the cap must be dropped whole, never split.
	body := strings.Repeat("a", 4) + "é" + "tail"
	got := truncateBody(body, 5)
	require.Equal(t, "aaaaé", got)
	require.True(t, utf8.ValidString(got))

	require.Equal(t, "aaaa", truncateBody(body, 4))
}

func TestAssignPriorityDueDateNA(t *testing.T) {
	require.Equal(t, "medium", assignPriority(&Analysis{Type: "invoice", DueDate: "N/A"}))
	require.Equal(t, "medium", assignPriority(&Analysis{Type: "invoice"}))
	require.Equal(t, "high", assignPriority(&Analysis{Type: "invoice", DueDate: "2026-09-01"}))
}
