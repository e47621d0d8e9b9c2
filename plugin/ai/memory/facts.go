// Package memory derives durable personal facts from conversation history.
package memory

import (
	"regexp"
	"strings"

	"github.com/deskwise/deskwise/plugin/ai"
)

// FactKeyUserName is the fact key for the user's stated name.
const FactKeyUserName = "user_name"

// namePatterns match a stated name in a user message. Ordered; the last match
// in history wins so a corrected name replaces an earlier one.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:my name is|i'm|i am|call me|this is)\s+([A-Za-z][a-z]+)`),
	regexp.MustCompile(`(?i)(?:name's)\s+([A-Za-z][a-z]+)`),
}

// ExtractFacts scans the full message history for personal facts that should
// persist across turns. Facts are recomputed every turn, never cached, so they
// self-heal if history changes.
func ExtractFacts(messages []ai.Message) map[string]string {
	facts := map[string]string{}
	for _, msg := range messages {
		if msg.Role != "user" {
			continue
		}
		for _, pattern := range namePatterns {
			if m := pattern.FindStringSubmatch(msg.Content); m != nil {
				facts[FactKeyUserName] = title(m[1])
			}
		}
	}
	return facts
}

// Reminders renders the extracted facts as system-prompt lines.
func Reminders(facts map[string]string) string {
	if len(facts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nREMEMBERED FACTS ABOUT THE USER:\n")
	if name, ok := facts[FactKeyUserName]; ok {
		sb.WriteString("- The user's name is " + name + ".\n")
	}
	return sb.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
