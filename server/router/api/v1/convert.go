package v1

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/store"
)

func roleToStore(role string) store.MessageRole {
	switch role {
	case "user":
		return store.MessageRoleUser
	case "system":
		return store.MessageRoleSystem
	case "tool":
		return store.MessageRoleTool
	default:
		return store.MessageRoleAssistant
	}
}

func roleFromStore(role store.MessageRole) string {
	switch role {
	case store.MessageRoleUser:
		return "user"
	case store.MessageRoleSystem:
		return "system"
	case store.MessageRoleTool:
		return "tool"
	default:
		return "assistant"
	}
}

// toStoreMessage converts a model message for persistence. Tool calls are
// kept as a JSON column so history replay can restore them verbatim.
func toStoreMessage(message ai.Message) (*store.Message, error) {
	stored := &store.Message{
		Role:       roleToStore(message.Role),
		Content:    message.Content,
		ToolCallID: message.ToolCallID,
		ToolName:   message.ToolName,
	}
	if len(message.ToolCalls) > 0 {
		raw, err := json.Marshal(message.ToolCalls)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal tool calls")
		}
		stored.ToolCalls = string(raw)
	}
	return stored, nil
}

// fromStoreMessage restores a persisted message for the model context.
func fromStoreMessage(stored *store.Message) (ai.Message, error) {
	message := ai.Message{
		Role:       roleFromStore(stored.Role),
		Content:    stored.Content,
		ToolCallID: stored.ToolCallID,
		ToolName:   stored.ToolName,
	}
	if stored.ToolCalls != "" {
		if err := json.Unmarshal([]byte(stored.ToolCalls), &message.ToolCalls); err != nil {
			return ai.Message{}, errors.Wrap(err, "failed to unmarshal tool calls")
		}
	}
	return message, nil
}

func fromStoreMessages(stored []*store.Message) ([]ai.Message, error) {
	messages := make([]ai.Message, 0, len(stored))
	for _, m := range stored {
		message, err := fromStoreMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
