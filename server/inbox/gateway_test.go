package inbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	queries []string
	results map[string][]*Email
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]*Email, error) {
	f.queries = append(f.queries, query)
	return f.results[query], nil
}

func newTestGateway(provider Provider) *Gateway {
	llm := &fakeLLM{err: context.DeadlineExceeded} // always use the deterministic fallback
	return NewGateway(provider, NewAnalyzer(llm, nil), nil)
}

func TestQueryDirectHit(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{
		"in:inbox from:priya": {{Subject: "Invoice #7", Sender: "priya"}},
	}}
	gw := newTestGateway(provider)

	results, err := gw.Query(context.Background(), "any email from priya about the invoice", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "invoice", results[0].Type)
	require.Equal(t, []string{"in:inbox from:priya"}, provider.queries)
}

func TestQueryTierFallbackOrder(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{
		"in:inbox priya": {{Subject: "Hello", Sender: "priya"}},
	}}
	gw := newTestGateway(provider)

	results, err := gw.Query(context.Background(), "any email from priya about the invoice", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, []string{
		"in:inbox from:priya",
		"in:inbox priya invoice",
		"in:inbox priya",
	}, provider.queries)
}

func TestQueryTier2Hit(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{
		"in:inbox priya invoice": {{Subject: "Invoice attached", Sender: "priya"}},
	}}
	gw := newTestGateway(provider)

	results, err := gw.Query(context.Background(), "any email from priya about the invoice", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, []string{
		"in:inbox from:priya",
		"in:inbox priya invoice",
	}, provider.queries)
}

func TestQueryNoTopicSkipsTier2(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{}}
	gw := newTestGateway(provider)

	results, err := gw.Query(context.Background(), "anything from priya today", 5)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, []string{
		"in:inbox from:priya",
		"in:inbox priya",
	}, provider.queries)
}

func TestQueryUrgencyFilter(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{
		"in:inbox": {
			{Subject: "Invoice due"},
			{Subject: "Newsletter: weekly promo"},
			{Subject: "Webinar invite... event today"},
		},
	}}
	gw := newTestGateway(provider)

	results, err := gw.Query(context.Background(), "show me important emails", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.Contains(t, []string{"high", "medium"}, r.Priority)
	}
}

func TestQueryUrgencyFilterSoft(t *testing.T) {
	provider := &fakeProvider{results: map[string][]*Email{
		"in:inbox": {
			{Subject: "Newsletter one, big sale"},
			{Subject: "Promo: discount inside"},
		},
	}}
	gw := newTestGateway(provider)

	// Everything is low priority, so the filter would empty the set and is
	// skipped instead.
	results, err := gw.Query(context.Background(), "any urgent emails", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestParseProviderResult(t *testing.T) {
	direct := ParseProviderResult([]byte(`[{"subject":"hi"}]`))
	require.Len(t, direct, 1)

	wrapped := ParseProviderResult([]byte(`"[{\"subject\":\"hi\"}]"`))
	require.Len(t, wrapped, 1)

	garbage := ParseProviderResult([]byte(`{"not":"a list"}`))
	require.Empty(t, garbage)
}
