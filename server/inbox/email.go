package inbox

import (
	"context"
	"encoding/json"
)

// Email is one raw message returned by the inbox provider.
type Email struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
	Snippet string `json:"snippet"`
}

// Provider searches a mailbox with a provider query string (Gmail search
// syntax) and returns the matching messages.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]*Email, error)
}

// ParseProviderResult decodes a provider response body that may be either a
// JSON array of messages or a JSON string wrapping one. Anything else decodes
// to an empty list rather than an error, since a malformed provider payload
// should degrade to "no results".
func ParseProviderResult(raw []byte) []*Email {
	var emails []*Email
	if err := json.Unmarshal(raw, &emails); err == nil {
		return emails
	}

	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if err := json.Unmarshal([]byte(wrapped), &emails); err == nil {
			return emails
		}
	}
	return []*Email{}
}
