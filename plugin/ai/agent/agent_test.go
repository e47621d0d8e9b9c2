package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deskwise/deskwise/plugin/ai"
)

// fakeLLM replays scripted tool-bound responses and streams a fixed answer.
type fakeLLM struct {
	responses []*ai.ChatResponse
	calls     int
	streamed  []string
	err       error
}

func (f *fakeLLM) Chat(_ context.Context, _ []ai.Message) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) ChatStream(_ context.Context, _ []ai.Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(contentChan)
		defer close(errChan)
		for _, chunk := range f.streamed {
			contentChan <- chunk
		}
	}()
	return contentChan, errChan
}

func (f *fakeLLM) ChatWithTools(_ context.Context, _ []ai.Message, _ []ai.ToolDescriptor) (*ai.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.responses) {
		return &ai.ChatResponse{Content: "done"}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

// fakeTool records invocations and returns a canned result.
type fakeTool struct {
	name   string
	result string
	calls  []string
	err    error
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake tool" }
func (f *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (f *fakeTool) Run(_ context.Context, argsJSON string) (string, error) {
	f.calls = append(f.calls, argsJSON)
	return f.result, f.err
}

func TestRunTurnDirectAnswer(t *testing.T) {
	llm := &fakeLLM{
		responses: []*ai.ChatResponse{{Content: "Hello Priya!"}},
	}
	ctrl := NewController(llm, Config{}, nil, nil)

	result, err := ctrl.RunTurn(context.Background(), []ai.Message{
		ai.UserMessage("my name is Priya, say hi"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello Priya!", result.Answer)
	require.Len(t, result.NewMessages, 1)
	require.Equal(t, "assistant", result.NewMessages[0].Role)
}

func TestRunTurnDispatchesTool(t *testing.T) {
	tool := &fakeTool{name: ToolNameDocumentSearch, result: `{"context":["chunk"]}`}
	llm := &fakeLLM{
		responses: []*ai.ChatResponse{
			{ToolCalls: []ai.ToolCall{{ID: "call_1", Name: ToolNameDocumentSearch, Arguments: `{"query":"invoices"}`}}},
			{Content: "You have 3 unpaid invoices."},
		},
	}
	ctrl := NewController(llm, Config{}, []Tool{tool}, nil)

	result, err := ctrl.RunTurn(context.Background(), []ai.Message{
		ai.UserMessage("show me unpaid invoices"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "You have 3 unpaid invoices.", result.Answer)
	require.Equal(t, []string{`{"query":"invoices"}`}, tool.calls)

	// assistant tool-call message, tool result, final answer
	require.Len(t, result.NewMessages, 3)
	require.Equal(t, "assistant", result.NewMessages[0].Role)
	require.Len(t, result.NewMessages[0].ToolCalls, 1)
	require.Equal(t, "tool", result.NewMessages[1].Role)
	require.Equal(t, ToolNameDocumentSearch, result.NewMessages[1].ToolName)
	require.Equal(t, "assistant", result.NewMessages[2].Role)
}

func TestRunTurnStreamingEmitsEventsOnce(t *testing.T) {
	tool := &fakeTool{name: ToolNameInboxIntelligence, result: `[{"type":"invoice"}]`}
	llm := &fakeLLM{
		responses: []*ai.ChatResponse{
			{ToolCalls: []ai.ToolCall{{ID: "call_1", Name: ToolNameInboxIntelligence, Arguments: `{"query":"in:inbox"}`}}},
			{Content: "probe answer, regenerated below"},
		},
		streamed: []string{"You have ", "one invoice."},
	}
	ctrl := NewController(llm, Config{}, []Tool{tool}, nil)

	var events []Event
	result, err := ctrl.RunTurn(context.Background(), []ai.Message{
		ai.UserMessage("check my email"),
	}, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "You have one invoice.", result.Answer)

	var toolCalls, toolResults, tokens int
	for _, ev := range events {
		switch ev.Type {
		case EventTypeToolCall:
			toolCalls++
			require.Equal(t, ToolNameInboxIntelligence, ev.ToolName)
		case EventTypeToolResult:
			toolResults++
		case EventTypeToken:
			tokens++
		}
	}
	require.Equal(t, 1, toolCalls)
	require.Equal(t, 1, toolResults)
	require.Equal(t, 2, tokens)
}

func TestRunTurnToolFailureEndsTurn(t *testing.T) {
	tool := &fakeTool{name: ToolNameDocumentSearch, err: errors.New("index offline")}
	llm := &fakeLLM{
		responses: []*ai.ChatResponse{
			{ToolCalls: []ai.ToolCall{{ID: "call_1", Name: ToolNameDocumentSearch, Arguments: `{}`}}},
		},
	}
	ctrl := NewController(llm, Config{}, []Tool{tool}, nil)

	_, err := ctrl.RunTurn(context.Background(), []ai.Message{
		ai.UserMessage("show invoices"),
	}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "index offline")
}

func TestRunTurnUnknownToolFeedsBack(t *testing.T) {
	llm := &fakeLLM{
		responses: []*ai.ChatResponse{
			{ToolCalls: []ai.ToolCall{{ID: "call_1", Name: "bogus_tool", Arguments: `{}`}}},
			{Content: "recovered"},
		},
	}
	ctrl := NewController(llm, Config{}, nil, nil)

	result, err := ctrl.RunTurn(context.Background(), []ai.Message{
		ai.UserMessage("hello"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "recovered", result.Answer)
}

func TestRunTurnEmptyHistory(t *testing.T) {
	ctrl := NewController(&fakeLLM{}, Config{}, nil, nil)
	_, err := ctrl.RunTurn(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestTrailingWindow(t *testing.T) {
	history := make([]ai.Message, 15)
	for i := range history {
		history[i] = ai.UserMessage("m")
	}
	require.Len(t, trailingWindow(history, 10), 10)
	require.Len(t, trailingWindow(history[:3], 10), 3)
}
