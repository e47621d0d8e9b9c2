package retrieval

import "strings"

// docTypeEntry pairs a document category with the query keywords that signal
// it. Declaration order is the tie-break when two categories score equally.
type docTypeEntry struct {
	docType  string
	keywords []string
}

var docTypeKeywords = []docTypeEntry{
	{"invoices", []string{
		"invoice", "invoices", "expenditure", "expenditures", "billing",
		"bill", "bills", "receipt", "receipts", "payment", "payments",
		"amount", "total amount", "due date", "vendor", "unpaid", "overdue",
	}},
	{"reviews", []string{
		"review", "reviews", "feedback", "rating", "ratings", "testimonial",
		"testimonials", "sentiment", "customer feedback", "negative review",
		"positive review", "complaint", "complaints",
	}},
	{"policies", []string{
		"policy", "policies", "sop", "procedure", "guideline", "guidelines",
		"compliance", "regulation",
	}},
	{"threads", []string{
		"thread", "threads", "conversation", "email thread", "discussion",
		"correspondence", "support ticket", "ticket",
	}},
}

// DetectDocType returns the most likely document category for a query, scored
// by how many category keywords appear as substrings. Returns "" when no
// keyword matches.
func DetectDocType(query string) string {
	queryLower := strings.ToLower(query)

	best := ""
	bestScore := 0
	for _, entry := range docTypeKeywords {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(queryLower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.docType
			bestScore = score
		}
	}
	return best
}
