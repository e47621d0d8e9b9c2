package ai

import (
	"time"

	"github.com/deskwise/deskwise/internal/profile"
)

// Config represents AI provider configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string

	MaxTokens   int           // default: 2048
	Temperature float32       // default: 0.7
	Timeout     time.Duration // per-call deadline, default: 60s
}

// NewConfigFromProfile creates AI config from the server profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		BaseURL:        p.AIBaseURL,
		APIKey:         p.AIAPIKey,
		ChatModel:      p.AIChatModel,
		EmbeddingModel: p.AIEmbeddingModel,
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ChatModel == "" {
		c.ChatModel = "gpt-4o-mini"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "text-embedding-3-small"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2048
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}
