package store

// Conversation is a persisted message thread, keyed by a caller-supplied
// thread identifier. History is append-only: it is never rewritten, only
// extended.
type Conversation struct {
	ID        int32
	ThreadID  string
	CreatedTs int64
	UpdatedTs int64
}

// MessageRole tags a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleSystem    MessageRole = "SYSTEM"
	MessageRoleAssistant MessageRole = "ASSISTANT"
	MessageRoleTool      MessageRole = "TOOL"
)

// Message is one persisted conversation entry. Immutable once appended.
type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	ToolCalls      string // JSON-encoded requested tool invocations, assistant messages only
	ToolCallID     string // originating call, tool-result messages only
	ToolName       string // originating tool, tool-result messages only
	CreatedTs      int64
}

// FindMessages is the find condition for conversation messages.
type FindMessages struct {
	ThreadID string
}
