package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// Message represents one entry of a conversation handed to the model.
// Role is one of "system", "user", "assistant", "tool".
type Message struct {
	Role    string
	Content string

	// ToolCalls carries tool invocations requested by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID and ToolName identify the originating call for a tool-result
	// message (Role == "tool").
	ToolCallID string
	ToolName   string
}

// ToolCall is a model-issued request to invoke one declared tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// ToolDescriptor declares one tool to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// ChatResponse is the model's reply to a tools-bound chat call.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// LLMService is the model collaborator interface.
type LLMService interface {
	// Chat performs a synchronous completion.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream performs a streaming completion. The content channel closes
	// when the stream ends; a single error may arrive on the error channel.
	ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error)

	// ChatWithTools performs a completion with the declared tool set bound.
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error)
}

type llmService struct {
	client *openai.Client
	config *Config
}

// NewLLMService creates an LLMService backed by an OpenAI-compatible endpoint.
func NewLLMService(cfg *Config) (LLMService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	cfg.applyDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &llmService{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.ChatModel,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
		Messages:    convertMessages(messages),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *llmService) ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()

		stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       s.config.ChatModel,
			MaxTokens:   s.config.MaxTokens,
			Temperature: s.config.Temperature,
			Messages:    convertMessages(messages),
			Stream:      true,
		})
		if err != nil {
			errChan <- err
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errChan <- err
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			chunk := resp.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			select {
			case contentChan <- chunk:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return contentChan, errChan
}

func (s *llmService) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	openaiTools := make([]openai.Tool, len(tools))
	for i, t := range tools {
		openaiTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.ChatModel,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
		Messages:    convertMessages(messages),
		Tools:       openaiTools,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0].Message
	result := &ChatResponse{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		if m.Role == "tool" {
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.ToolName
		}
		out[i] = msg
	}
	return out
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// ToolResultMessage creates a tool-result message for the given call.
func ToolResultMessage(callID, toolName, content string) Message {
	return Message{Role: "tool", Content: content, ToolCallID: callID, ToolName: toolName}
}
