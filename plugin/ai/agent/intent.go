package agent

import (
	"regexp"
	"strings"
)

// Intent is the routing decision for a user utterance.
type Intent string

const (
	// IntentRetrieval routes to the document retrieval tool.
	IntentRetrieval Intent = "retrieval"

	// IntentInbox routes to the inbox intelligence tool.
	IntentInbox Intent = "inbox"

	// IntentUndecided lets the model choose freely among the declared tools.
	IntentUndecided Intent = "undecided"
)

// inboxKeywords signal an inbox-intelligence query.
var inboxKeywords = []string{
	"email", "emails", "inbox", "mail", "mails", "gmail",
	"unread", "recent emails", "check my email", "show me my email",
	"vendor email", "client email",
	"meeting invite", "correspondence",
}

// retrievalKeywords signal a document-retrieval query.
var retrievalKeywords = []string{
	"invoice", "invoices", "expenditure", "expenditures", "billing",
	"bill", "bills", "receipt", "receipts", "payment", "payments",
	"review", "reviews", "feedback", "rating", "ratings",
	"complaint", "complaints", "sentiment", "testimonial",
	"policy", "policies", "sop", "procedure", "guideline",
	"report", "contract", "proposal", "feature", "changelog",
	"document", "documents", "docs", "from the docs",
	"support ticket", "thread", "threads",
}

// composePatterns recognize compose intent: the user wants to produce an
// email from document content, not to search the inbox.
var composePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:draft|write|compose|create|send|reply|respond|prepare|generate)\s+(?:a\s+|an\s+|the\s+)?(?:reply\s+)?(?:email|mail|response)`),
	regexp.MustCompile(`(?i)(?:reply|respond)\s+(?:to\s+)?(?:this|that|the|his|her)`),
}

// ClassifyIntent scores the last user utterance against the keyword tables.
// Returns IntentUndecided when neither table fires; when both fire, a compose
// pattern forces retrieval, otherwise inbox wins.
func ClassifyIntent(utterance string) Intent {
	lower := strings.ToLower(utterance)

	isInbox := containsAny(lower, inboxKeywords)
	isRetrieval := containsAny(lower, retrievalKeywords)

	if isInbox && isRetrieval {
		if matchesAny(lower, composePatterns) {
			return IntentRetrieval
		}
		return IntentInbox
	}
	if isRetrieval {
		return IntentRetrieval
	}
	if isInbox {
		return IntentInbox
	}
	return IntentUndecided
}

// Directive produces the routing directive appended to the system prompt for
// a decided intent. It is a prompt-level contract with the model, not an
// enforced one.
func Directive(intent Intent, lastUserMessage string) string {
	switch intent {
	case IntentRetrieval:
		return "\nCRITICAL: The user is asking about business documents. " +
			"You MUST call " + ToolNameDocumentSearch + " right now. " +
			"Do NOT call " + ToolNameInboxIntelligence + ". " +
			"Do NOT ask the user any questions. " +
			"Call " + ToolNameDocumentSearch + " with query='" + lastUserMessage + "'.\n"
	case IntentInbox:
		return "\nCRITICAL: The user is asking about emails. " +
			"You MUST call " + ToolNameInboxIntelligence + " right now. " +
			"Do NOT ask the user any questions. " +
			"Call " + ToolNameInboxIntelligence + " with query='" + lastUserMessage + "'.\n"
	default:
		return ""
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
