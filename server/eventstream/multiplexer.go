package eventstream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/plugin/ai/agent"
)

// Wire event shapes. Every event is one JSON object per SSE frame; consumers
// dispatch on which marker field is present.
type tokenEvent struct {
	Token string `json:"token"`
}

type toolCallEvent struct {
	ToolCall bool   `json:"tool_call"`
	ToolName string `json:"tool_name"`
	ToolArgs any    `json:"tool_args"`
}

type toolResultEvent struct {
	ToolResult bool     `json:"tool_result"`
	ToolName   string   `json:"tool_name"`
	Sources    []string `json:"sources"`
}

type doneEvent struct {
	Done       bool   `json:"done"`
	FullAnswer string `json:"full_answer"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// EmitFunc delivers one wire event to the client.
type EmitFunc func(payload any) error

// Multiplexer translates internal turn events into the wire event stream.
// Tool call and tool result events are emitted at most once per tool name,
// so a model that re-announces a tool does not produce duplicate frames.
// Answer tokens are accumulated for the final done event.
type Multiplexer struct {
	emit func(payload any) error

	emittedToolCalls   map[string]bool
	emittedToolResults map[string]bool
	fullAnswer         strings.Builder
}

func NewMultiplexer(emit EmitFunc) *Multiplexer {
	return &Multiplexer{
		emit:               emit,
		emittedToolCalls:   make(map[string]bool),
		emittedToolResults: make(map[string]bool),
	}
}

// OnEvent is the agent event callback.
func (m *Multiplexer) OnEvent(event agent.Event) error {
	switch event.Type {
	case agent.EventTypeToken:
		m.fullAnswer.WriteString(event.Payload)
		return m.emit(tokenEvent{Token: event.Payload})
	case agent.EventTypeToolCall:
		if m.emittedToolCalls[event.ToolName] {
			return nil
		}
		m.emittedToolCalls[event.ToolName] = true
		return m.emit(toolCallEvent{
			ToolCall: true,
			ToolName: event.ToolName,
			ToolArgs: parseToolArgs(event.ToolArgs),
		})
	case agent.EventTypeToolResult:
		if m.emittedToolResults[event.ToolName] {
			return nil
		}
		m.emittedToolResults[event.ToolName] = true
		return m.emit(toolResultEvent{
			ToolResult: true,
			ToolName:   event.ToolName,
			Sources:    SummarizeSources(event.Payload),
		})
	default:
		return errors.Errorf("unknown event type: %s", event.Type)
	}
}

// Done emits the terminal event carrying the accumulated answer.
func (m *Multiplexer) Done() error {
	return m.emit(doneEvent{Done: true, FullAnswer: m.fullAnswer.String()})
}

// Fail emits an error event. The stream ends after it.
func (m *Multiplexer) Fail(err error) error {
	return m.emit(errorEvent{Error: err.Error()})
}

// FullAnswer returns the answer accumulated from token events so far.
func (m *Multiplexer) FullAnswer() string {
	return m.fullAnswer.String()
}

func parseToolArgs(raw string) any {
	var args any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		// Pass the raw string through rather than dropping the event.
		return raw
	}
	return args
}

// SummarizeSources reduces a raw tool result payload to display labels.
// It is shape tolerant: an object with "metadata" entries yields the base
// file name of each distinct source, an object with "context" yields a chunk
// count, a bare array yields an email count, and anything unrecognized
// yields no labels at all.
func SummarizeSources(payload string) []string {
	sources := []string{}

	var content any
	if err := json.Unmarshal([]byte(payload), &content); err != nil {
		return sources
	}

	switch v := content.(type) {
	case map[string]any:
		if metadata, ok := v["metadata"].([]any); ok {
			for _, entry := range metadata {
				meta, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				source, ok := meta["source"].(string)
				if !ok {
					continue
				}
				name := baseName(source)
				if !containsString(sources, name) {
					sources = append(sources, name)
				}
			}
		}
		if context, ok := v["context"].([]any); ok {
			sources = append(sources, pluralize(len(context), "document chunks"))
		}
	case []any:
		sources = append(sources, pluralize(len(v), "emails analyzed"))
	}

	return sources
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx != -1 {
		path = path[idx+1:]
	}
	if idx := strings.LastIndex(path, `\`); idx != -1 {
		path = path[idx+1:]
	}
	return path
}

func pluralize(n int, label string) string {
	return fmt.Sprintf("%d %s", n, label)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
