package inbox

import (
	"fmt"
	"regexp"
	"strings"
)

// Words that signal the end of a sender name when it trails "from"/"by".
var senderBoundaryWords = map[string]bool{
	"regarding": true, "about": true, "concerning": true, "for": true,
	"with": true, "on": true, "that": true, "which": true, "and": true,
	"or": true, "invoice": true, "invoices": true, "payment": true,
	"receipt": true, "bill": true, "report": true, "review": true,
	"policy": true, "subject": true, "today": true, "yesterday": true,
	"last": true, "this": true, "please": true, "can": true, "could": true,
	"check": true,
}

// Captures up to two words after from/by/sent by. The second word is dropped
// afterwards when it is a boundary word, keeping "priya sharma" intact while
// cutting "priya about" down to "priya".
var senderPattern = regexp.MustCompile(
	`(?i)(?:from|by|sent by)\s+([a-zA-Z0-9_.+-]+)(?:\s+([a-zA-Z0-9_.+-]+))?`,
)

var senderStopWords = map[string]bool{
	"me": true, "my": true, "the": true, "a": true, "an": true,
	"inbox": true, "email": true, "mail": true,
}

// ExtractSender pulls a sender name out of queries like "email from priya".
// Returns "" when no sender is present.
func ExtractSender(query string) string {
	match := senderPattern.FindStringSubmatch(query)
	if match == nil {
		return ""
	}
	name := match[1]
	if second := match[2]; second != "" && !senderBoundaryWords[strings.ToLower(second)] {
		name = name + " " + second
	}
	name = strings.TrimSpace(name)
	if senderStopWords[strings.ToLower(name)] {
		return ""
	}
	return name
}

// Stop words stripped before the residue of a query becomes provider keywords.
var keywordStopWords = map[string]bool{
	"can": true, "you": true, "tell": true, "me": true, "about": true,
	"the": true, "most": true, "recent": true, "mail": true, "mails": true,
	"email": true, "emails": true, "my": true, "i": true, "got": true,
	"any": true, "show": true, "find": true, "get": true, "check": true,
	"do": true, "have": true, "a": true, "an": true, "in": true,
	"from": true, "is": true, "it": true, "what": true, "of": true,
	"to": true, "and": true, "or": true, "if": true, "just": true,
	"regarding": true, "out": true,
}

// BuildSearchQuery turns a normalized user query into a provider search query.
// A detected sender takes precedence over subject and keyword filters, since
// combining from: with subject: is usually too restrictive.
func BuildSearchQuery(normalized, sender string) string {
	parts := []string{"in:inbox"}

	switch {
	case sender != "":
		parts = append(parts, "from:"+sender)
	case strings.Contains(normalized, "invoice"):
		parts = append(parts, "subject:invoice")
	case strings.Contains(normalized, "important") || strings.Contains(normalized, "urgent"):
		// No additional filter, just the inbox.
	case strings.Contains(normalized, "network"):
		parts = append(parts, "subject:(invitation OR connect)")
	default:
		keywords := []string{}
		for _, word := range strings.Fields(normalized) {
			if !keywordStopWords[word] {
				keywords = append(keywords, word)
			}
		}
		if len(keywords) > 0 {
			parts = append(parts, strings.Join(keywords, " "))
		}
	}

	return strings.Join(parts, " ")
}

// topicKeyword pairs a query keyword with the provider search label used in
// the sender+topic fallback. Checked in declaration order.
type topicKeyword struct {
	keyword string
	label   string
}

var topicKeywords = []topicKeyword{
	{"invoice", "invoice"},
	{"payment", "payment"},
	{"receipt", "receipt"},
	{"bill", "bill"},
	{"meeting", "meeting"},
	{"event", "event"},
	{"network", "networking"},
	{"connect", "connect"},
}

// DetectTopic returns the fallback topic label implied by a query, or "".
func DetectTopic(normalized string) string {
	for _, tk := range topicKeywords {
		if strings.Contains(normalized, tk.keyword) {
			return tk.label
		}
	}
	return ""
}

// SenderTopicQuery is the tier 2 fallback query: sender plus topic, unscoped
// to the from: field.
func SenderTopicQuery(sender, topic string) string {
	return fmt.Sprintf("in:inbox %s %s", sender, topic)
}

// SenderOnlyQuery is the tier 3 fallback query, the broadest sender match.
func SenderOnlyQuery(sender string) string {
	return fmt.Sprintf("in:inbox %s", sender)
}
