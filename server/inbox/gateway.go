package inbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/plugin/ai/agent"
)

const defaultMaxResults = 5

// Gateway answers inbox questions: it translates the user's request into a
// provider search, falls back to broader queries when a sender-scoped search
// comes back empty, and runs per-message analysis over the hits.
type Gateway struct {
	provider Provider
	analyzer *Analyzer
	logger   *slog.Logger
}

func NewGateway(provider Provider, analyzer *Analyzer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		provider: provider,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Query searches the inbox and returns analyzed results.
//
// When a sender is detected the search cascades through three tiers until one
// returns results:
//
//	tier 1: from:sender (strict)
//	tier 2: sender + topic keyword (unscoped)
//	tier 3: sender only (broadest)
//
// When the query asks for important or urgent mail, results are filtered to
// high and medium priority. The filter is soft: if it would empty the result
// set, the unfiltered results are returned instead.
func (g *Gateway) Query(ctx context.Context, query string, maxResults int) ([]*Analysis, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	normalized := strings.ToLower(strings.TrimSpace(query))
	sender := ExtractSender(normalized)
	searchQuery := BuildSearchQuery(normalized, sender)

	g.logger.Debug("inbox search", "query", searchQuery, "sender", sender)

	emails, err := g.provider.Search(ctx, searchQuery, maxResults)
	if err != nil {
		return nil, errors.Wrap(err, "inbox provider search failed")
	}

	if sender != "" && len(emails) == 0 {
		if topic := DetectTopic(normalized); topic != "" {
			fallbackQuery := SenderTopicQuery(sender, topic)
			g.logger.Debug("inbox sender+topic fallback", "query", fallbackQuery)
			emails, err = g.provider.Search(ctx, fallbackQuery, maxResults)
			if err != nil {
				return nil, errors.Wrap(err, "inbox provider search failed")
			}
		}
		if len(emails) == 0 {
			fallbackQuery := SenderOnlyQuery(sender)
			g.logger.Debug("inbox sender-only fallback", "query", fallbackQuery)
			emails, err = g.provider.Search(ctx, fallbackQuery, maxResults)
			if err != nil {
				return nil, errors.Wrap(err, "inbox provider search failed")
			}
		}
	}

	analyzed := make([]*Analysis, 0, len(emails))
	for _, email := range emails {
		if email == nil {
			continue
		}
		analyzed = append(analyzed, g.analyzer.Analyze(ctx, email))
	}

	if containsAny(normalized, "important", "urgent", "priority") {
		filtered := make([]*Analysis, 0, len(analyzed))
		for _, a := range analyzed {
			if a.Priority == "high" || a.Priority == "medium" {
				filtered = append(filtered, a)
			}
		}
		if len(filtered) > 0 {
			analyzed = filtered
		} else {
			g.logger.Debug("no high or medium priority mail, returning all",
				"count", len(analyzed))
		}
	}

	return analyzed, nil
}

// Tool adapts the gateway to the agent tool interface.
type Tool struct {
	gateway *Gateway
}

var _ agent.Tool = (*Tool)(nil)

func NewTool(gateway *Gateway) *Tool {
	return &Tool{gateway: gateway}
}

func (*Tool) Name() string {
	return agent.ToolNameInboxIntelligence
}

func (*Tool) Description() string {
	return "Analyze the user's email inbox and return structured business intelligence. " +
		"Use when the user asks about important or urgent emails, invoice or billing emails, " +
		"client or vendor communications, meeting invitations or event notifications, " +
		"inbox summaries, or any other email-related inquiry."
}

func (*Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The user's email-related request in natural language.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of emails to analyze, default 5.",
			},
		},
		"required": []string{"query"},
	}
}

type toolArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// Run executes an inbox query from LLM-provided arguments and returns the
// analyzed emails as a JSON payload for the model to read.
func (t *Tool) Run(ctx context.Context, argsJSON string) (string, error) {
	args := toolArgs{Query: "in:inbox"}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", errors.Wrap(err, "failed to parse inbox_intelligence arguments")
	}

	results, err := t.gateway.Query(ctx, args.Query, args.MaxResults)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal inbox_intelligence result")
	}
	return string(out), nil
}
