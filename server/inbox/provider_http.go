package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPProvider talks to an inbox bridge service that proxies mailbox search.
// The bridge accepts a provider query string and returns matching messages as
// JSON.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

func NewHTTPProvider(baseURL, token string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (p *HTTPProvider) Search(ctx context.Context, query string, maxResults int) ([]*Email, error) {
	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "inbox provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("inbox provider returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read provider response")
	}
	return ParseProviderResult(raw), nil
}
