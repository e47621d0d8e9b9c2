// Package agent implements the turn controller: a bounded tool-calling loop
// that routes between the document retrieval and inbox intelligence gateways.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/plugin/ai/memory"
	apierrors "github.com/deskwise/deskwise/internal/errors"
	"github.com/deskwise/deskwise/internal/observability"
)

// Declared tool names.
const (
	ToolNameDocumentSearch    = "document_search"
	ToolNameInboxIntelligence = "inbox_intelligence"
)

// Tool is one external capability the model may invoke.
type Tool interface {
	// Name returns the declared tool name.
	Name() string

	// Description returns the natural-language contract shown to the model.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() map[string]any

	// Run executes the tool with raw JSON arguments and returns a JSON result.
	Run(ctx context.Context, argsJSON string) (string, error)
}

// EventCallback receives internal turn events in arrival order.
// Returning an error aborts the turn.
type EventCallback func(event Event) error

// EventType tags an internal turn event.
type EventType string

const (
	// EventTypeToken is a chunk of the final answer.
	EventTypeToken EventType = "token"
	// EventTypeToolCall announces a model-requested tool invocation.
	EventTypeToolCall EventType = "tool_call"
	// EventTypeToolResult carries a tool's raw JSON result.
	EventTypeToolResult EventType = "tool_result"
)

// Event is one internal turn event.
type Event struct {
	Type     EventType
	ToolName string
	ToolArgs string // raw JSON, tool_call only
	Payload  string // token chunk or raw tool result JSON
}

// Config holds turn controller configuration.
type Config struct {
	// MaxIterations bounds the tool-calling loop.
	MaxIterations int

	// ContextWindow is the number of trailing conversation messages sent to
	// the model. Older context is dropped, not summarized.
	ContextWindow int
}

// Controller drives one conversation turn at a time. Callers must serialize
// turns per thread themselves; the controller holds no per-thread locks.
type Controller struct {
	llm     ai.LLMService
	config  Config
	tools   []Tool
	toolMap map[string]Tool
	metrics *observability.Metrics
}

// NewController creates a turn controller with the given tool set.
func NewController(llm ai.LLMService, config Config, tools []Tool, metrics *observability.Metrics) *Controller {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 10
	}
	if config.ContextWindow <= 0 {
		config.ContextWindow = 10
	}

	toolMap := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		toolMap[tool.Name()] = tool
	}

	return &Controller{
		llm:     llm,
		config:  config,
		tools:   tools,
		toolMap: toolMap,
		metrics: metrics,
	}
}

// Result is the outcome of a completed turn.
type Result struct {
	// Answer is the final assistant answer.
	Answer string

	// NewMessages are the messages produced this turn (assistant tool-call
	// messages, tool results, final answer) in insertion order. The caller
	// commits them to the conversation atomically.
	NewMessages []ai.Message
}

// RunTurn executes one turn over the given conversation history.
// A nil callback runs the turn without streaming.
func (c *Controller) RunTurn(ctx context.Context, history []ai.Message, callback EventCallback) (*Result, error) {
	start := time.Now()
	result, err := c.runTurn(ctx, history, callback)
	if c.metrics != nil {
		c.metrics.RecordTurn(time.Since(start), err != nil)
	}
	return result, err
}

func (c *Controller) runTurn(ctx context.Context, history []ai.Message, callback EventCallback) (*Result, error) {
	if len(history) == 0 {
		return nil, apierrors.New(apierrors.ErrCodeInvalidArgument, "empty conversation")
	}

	facts := memory.ExtractFacts(history)
	lastUser := strings.ToLower(lastUserMessage(history))
	intent := ClassifyIntent(lastUser)

	slog.Debug("turn routing decided",
		"intent", intent,
		"message", observability.TruncateForLog(lastUser, 80))

	system := ai.SystemMessage(c.buildSystemPrompt(facts, intent, lastUser))
	window := trailingWindow(history, c.config.ContextWindow)

	messages := make([]ai.Message, 0, len(window)+1)
	messages = append(messages, system)
	messages = append(messages, window...)

	var newMessages []ai.Message

	for iteration := 0; iteration < c.config.MaxIterations; iteration++ {
		resp, err := c.llm.ChatWithTools(ctx, messages, c.descriptors())
		if err != nil {
			return nil, providerError("model call failed", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer, err := c.finalAnswer(ctx, messages, resp.Content, callback)
			if err != nil {
				return nil, err
			}
			newMessages = append(newMessages, ai.AssistantMessage(answer))
			return &Result{Answer: answer, NewMessages: newMessages}, nil
		}

		assistant := ai.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		messages = append(messages, assistant)
		newMessages = append(newMessages, assistant)

		for _, tc := range resp.ToolCalls {
			toolResult, err := c.dispatch(ctx, tc, iteration, callback)
			if err != nil {
				return nil, err
			}
			resultMsg := ai.ToolResultMessage(tc.ID, tc.Name, toolResult)
			messages = append(messages, resultMsg)
			newMessages = append(newMessages, resultMsg)
		}
	}

	return nil, apierrors.New(apierrors.ErrCodeProviderCallFailed,
		fmt.Sprintf("exceeded maximum iterations (%d)", c.config.MaxIterations))
}

// dispatch routes a single tool call to the matching gateway.
func (c *Controller) dispatch(ctx context.Context, tc ai.ToolCall, iteration int, callback EventCallback) (string, error) {
	tool, ok := c.toolMap[tc.Name]
	if !ok {
		// An unknown tool name is fed back to the model rather than failing
		// the turn; the model can correct itself on the next iteration.
		slog.Warn("model requested unknown tool",
			observability.LogFieldToolName, tc.Name,
			observability.LogFieldIteration, iteration)
		return fmt.Sprintf(`{"error":"unknown tool %q"}`, tc.Name), nil
	}

	if callback != nil {
		if err := callback(Event{
			Type:     EventTypeToolCall,
			ToolName: tc.Name,
			ToolArgs: tc.Arguments,
		}); err != nil {
			return "", err
		}
	}

	start := time.Now()
	result, err := tool.Run(ctx, tc.Arguments)
	if c.metrics != nil {
		c.metrics.RecordToolCall(tc.Name, time.Since(start), err)
	}
	if err != nil {
		return "", providerError(fmt.Sprintf("tool %s failed", tc.Name), err)
	}

	slog.Info("tool dispatched",
		observability.LogFieldToolName, tc.Name,
		observability.LogFieldIteration, iteration,
		"duration_ms", time.Since(start).Milliseconds(),
		"result_length", len(result))

	if callback != nil {
		if err := callback(Event{
			Type:     EventTypeToolResult,
			ToolName: tc.Name,
			Payload:  result,
		}); err != nil {
			return "", err
		}
	}
	return result, nil
}

// finalAnswer produces the final assistant answer. In streaming mode the
// answer is regenerated with a streaming call so token chunks reach the
// callback; otherwise the probe response content is used as-is.
func (c *Controller) finalAnswer(ctx context.Context, messages []ai.Message, probeContent string, callback EventCallback) (string, error) {
	if callback == nil {
		return probeContent, nil
	}

	contentChan, errChan := c.llm.ChatStream(ctx, messages)
	var full strings.Builder
	for {
		select {
		case chunk, ok := <-contentChan:
			if !ok {
				return full.String(), nil
			}
			full.WriteString(chunk)
			if err := callback(Event{Type: EventTypeToken, Payload: chunk}); err != nil {
				return "", err
			}
		case err, ok := <-errChan:
			if ok && err != nil {
				return "", providerError("streaming model call failed", err)
			}
			errChan = nil
		case <-ctx.Done():
			return "", providerError("turn canceled", ctx.Err())
		}
	}
}

func (c *Controller) descriptors() []ai.ToolDescriptor {
	out := make([]ai.ToolDescriptor, len(c.tools))
	for i, tool := range c.tools {
		out[i] = ai.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		}
	}
	return out
}

func (c *Controller) buildSystemPrompt(facts map[string]string, intent Intent, lastUser string) string {
	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)
	sb.WriteString(memory.Reminders(facts))
	sb.WriteString(Directive(intent, lastUser))
	return sb.String()
}

// lastUserMessage returns the content of the most recent user message.
func lastUserMessage(history []ai.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}

// trailingWindow returns the last n messages of the history.
func trailingWindow(history []ai.Message, n int) []ai.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// providerError maps an external-call failure to a coded turn error.
func providerError(message string, err error) error {
	code := apierrors.ErrCodeProviderCallFailed
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = apierrors.ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		code = apierrors.ErrCodeContextCanceled
	}
	return apierrors.Wrap(code, message, err)
}
