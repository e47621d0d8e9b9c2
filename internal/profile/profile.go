package profile

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory (ingested documents live under Data/docs)
	Data string
	// DSN points to where deskwise stores conversation history and document vectors
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// AI configuration
	AIBaseURL        string // DESKWISE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey         string // DESKWISE_AI_API_KEY
	AIChatModel      string // DESKWISE_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel string // DESKWISE_AI_EMBEDDING_MODEL (default: text-embedding-3-small)

	// Inbox provider configuration
	InboxProviderURL   string // DESKWISE_INBOX_PROVIDER_URL
	InboxProviderToken string // DESKWISE_INBOX_PROVIDER_TOKEN

	// IngestEnabled turns the background document ingestion runner on.
	IngestEnabled bool // DESKWISE_INGEST_ENABLED (default: true)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM endpoint is usable. Either an API key or
// a self-hosted base URL is enough.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != "" || p.AIBaseURL != ""
}

// Validate checks the profile for obvious misconfiguration and applies defaults.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	switch p.Driver {
	case "sqlite", "postgres":
	case "":
		p.Driver = "sqlite"
	default:
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("DSN is required for the postgres driver")
	}
	if p.AIChatModel == "" {
		p.AIChatModel = "gpt-4o-mini"
	}
	if p.AIEmbeddingModel == "" {
		p.AIEmbeddingModel = "text-embedding-3-small"
	}
	return nil
}

func (p *Profile) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mode=%s addr=%s port=%d driver=%s data=%s chat_model=%s",
		p.Mode, p.Addr, p.Port, p.Driver, p.Data, p.AIChatModel)
	return sb.String()
}
