package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/store/cache"
)

// Analysis is the structured intelligence extracted from one email.
type Analysis struct {
	Type            string `json:"type"`
	Subject         string `json:"subject"`
	Sender          string `json:"sender"`
	SuggestedAction string `json:"suggested_action"`
	Vendor          string `json:"vendor,omitempty"`
	Amount          string `json:"amount,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	Sentiment       string `json:"sentiment"`
	Priority        string `json:"priority"`
}

const maxBodyChars = 500

const analysisPromptFormat = "Return ONLY a JSON object, no markdown, no explanation.\n" +
	"IMPORTANT: Only use information EXPLICITLY stated in the email below.\n" +
	"If a field is NOT mentioned in the email, use \"N/A\" for that field.\n" +
	"Do NOT guess or make up any values.\n\n" +
	`{"type":"<invoice|review|networking|event|promotional|other>",` +
	`"suggested_action":"<action>","vendor":"<N/A if not mentioned>","amount":"<N/A if not mentioned>",` +
	`"due_date":"<N/A if not mentioned>","sentiment":"<positive|negative|neutral>"}` +
	"\n\nSubject: %s\nFrom: %s\nBody: %s"

// Analyzer turns raw emails into Analysis values via the LLM, with a
// deterministic keyword fallback when the model response cannot be parsed.
// Results are cached so re-analyzing an unchanged inbox is free.
type Analyzer struct {
	llm    ai.LLMService
	cache  *cache.Cache
	logger *slog.Logger
}

func NewAnalyzer(llm ai.LLMService, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		llm: llm,
		cache: cache.New(cache.Config{
			DefaultTTL:      15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        500,
		}),
		logger: logger,
	}
}

func (a *Analyzer) Close() {
	a.cache.Close()
}

// Analyze extracts structured data from one email. It never returns an error:
// when the LLM fails or produces unparseable output, a deterministic analysis
// derived from the subject line is returned instead.
func (a *Analyzer) Analyze(ctx context.Context, email *Email) *Analysis {
	cacheKey := cache.GenerateCacheKey("email_analysis", email.Sender, email.Subject, email.Body)
	if v, ok := a.cache.Get(ctx, cacheKey); ok {
		if analysis, ok := v.(*Analysis); ok {
			return analysis
		}
	}

	analysis := a.analyzeWithLLM(ctx, email)
	if analysis == nil {
		analysis = fallbackAnalysis(email)
	}

	if analysis.Subject == "" {
		analysis.Subject = email.Subject
	}
	if analysis.Sender == "" {
		analysis.Sender = email.Sender
	}
	analysis.Priority = assignPriority(analysis)

	a.cache.Set(ctx, cacheKey, analysis)
	return analysis
}

func (a *Analyzer) analyzeWithLLM(ctx context.Context, email *Email) *Analysis {
	body := truncateBody(email.Body, maxBodyChars)
	prompt := fmt.Sprintf(analysisPromptFormat, email.Subject, email.Sender, body)

	response, err := a.llm.Chat(ctx, []ai.Message{ai.UserMessage(prompt)})
	if err != nil {
		a.logger.Warn("email analysis failed, using fallback",
			"subject", email.Subject, "error", err)
		return nil
	}

	analysis, err := parseAnalysisResponse(response)
	if err != nil {
		a.logger.Warn("unparseable email analysis, using fallback",
			"subject", email.Subject, "error", err)
		return nil
	}
	return analysis
}

// truncateBody caps the body on a rune boundary so a multibyte character is
// never split mid-sequence.
func truncateBody(body string, maxChars int) string {
	runes := []rune(body)
	if len(runes) <= maxChars {
		return body
	}
	return string(runes[:maxChars])
}

// parseAnalysisResponse decodes the model output, tolerating markdown fences,
// surrounding prose, and a single-element array wrapper.
func parseAnalysisResponse(response string) (*Analysis, error) {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		cleaned = strings.TrimSpace(cleaned)
		cleaned = strings.TrimPrefix(cleaned, "json")
		cleaned = strings.TrimSpace(cleaned)
	}

	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	// Slice out the outermost object so leading or trailing prose is ignored.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end != -1 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err == nil {
		return &analysis, nil
	}

	var list []Analysis
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil && len(list) > 0 {
		return &list[0], nil
	}

	return nil, fmt.Errorf("response is not a JSON object")
}

// fallbackAnalysis classifies an email from its subject line alone.
func fallbackAnalysis(email *Email) *Analysis {
	emailType := "other"
	lowerSubject := strings.ToLower(email.Subject)

	switch {
	case containsAny(lowerSubject, "invoice", "payment", "receipt", "bill"):
		emailType = "invoice"
	case containsAny(lowerSubject, "invitation", "connect", "network", "linkedin"):
		emailType = "networking"
	case containsAny(lowerSubject, "event", "webinar", "conference", "meetup"):
		emailType = "event"
	case containsAny(lowerSubject, "sale", "offer", "discount", "promo", "newsletter"):
		emailType = "promotional"
	}

	return &Analysis{
		Type:            emailType,
		Subject:         email.Subject,
		Sender:          email.Sender,
		SuggestedAction: "review manually",
		Sentiment:       "neutral",
	}
}

// assignPriority ranks an analyzed email. Invoices with an extracted due date
// are high, since a known deadline is actionable. A due date of "N/A" counts
// as not extracted.
func assignPriority(analysis *Analysis) string {
	switch analysis.Type {
	case "invoice":
		if analysis.DueDate != "" && analysis.DueDate != "N/A" {
			return "high"
		}
		return "medium"
	case "event":
		return "medium"
	default:
		return "low"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
