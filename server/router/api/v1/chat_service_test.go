package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/plugin/ai/agent"
	apierrors "github.com/deskwise/deskwise/internal/errors"
	"github.com/deskwise/deskwise/internal/observability"
	"github.com/deskwise/deskwise/store"
)

type fakeDriver struct {
	messages map[string][]*store.Message
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{messages: map[string][]*store.Message{}}
}

func (*fakeDriver) GetDB() *sql.DB                  { return nil }
func (*fakeDriver) Close() error                    { return nil }
func (*fakeDriver) Migrate(_ context.Context) error { return nil }

func (d *fakeDriver) ListConversationMessages(_ context.Context, find *store.FindMessages) ([]*store.Message, error) {
	return d.messages[find.ThreadID], nil
}

func (d *fakeDriver) AppendConversationMessages(_ context.Context, threadID string, messages []*store.Message) error {
	d.messages[threadID] = append(d.messages[threadID], messages...)
	return nil
}

func (*fakeDriver) CreateDocumentChunks(_ context.Context, _ string, _ []*store.DocumentChunk) error {
	return nil
}
func (*fakeDriver) ListDocumentSources(_ context.Context) ([]string, error) { return nil, nil }
func (*fakeDriver) SearchDocuments(_ context.Context, _ *store.SearchDocumentsOptions) ([]*store.DocumentChunkWithScore, error) {
	return nil, nil
}

type fakeRunner struct {
	run func(ctx context.Context, history []ai.Message, callback agent.EventCallback) (*agent.Result, error)
}

func (f *fakeRunner) RunTurn(ctx context.Context, history []ai.Message, callback agent.EventCallback) (*agent.Result, error) {
	return f.run(ctx, history, callback)
}

func newTestService(runner TurnRunner) (*APIV1Service, *fakeDriver) {
	driver := newFakeDriver()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite"}
	svc := NewAPIV1Service(p, store.New(driver, p), runner, observability.NewMetrics(0), nil)
	return svc, driver
}

func doRequest(svc *APIV1Service, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	svc.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChatHappyPath(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, history []ai.Message, _ agent.EventCallback) (*agent.Result, error) {
		require.Equal(t, "hello", history[len(history)-1].Content)
		return &agent.Result{
			Answer:      "hi there",
			NewMessages: []ai.Message{ai.AssistantMessage("hi there")},
		}, nil
	}}
	svc, driver := newTestService(runner)

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat", `{"query":"hello","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "hi there", resp.Answer)

	// User message and answer were committed together.
	stored := driver.messages["t1"]
	require.Len(t, stored, 2)
	require.Equal(t, store.MessageRoleUser, stored[0].Role)
	require.Equal(t, store.MessageRoleAssistant, stored[1].Role)
}

func TestChatLoadsHistory(t *testing.T) {
	var seen []ai.Message
	runner := &fakeRunner{run: func(_ context.Context, history []ai.Message, _ agent.EventCallback) (*agent.Result, error) {
		seen = history
		return &agent.Result{Answer: "ok", NewMessages: []ai.Message{ai.AssistantMessage("ok")}}, nil
	}}
	svc, driver := newTestService(runner)
	driver.messages["t1"] = []*store.Message{
		{Role: store.MessageRoleUser, Content: "earlier question"},
		{Role: store.MessageRoleAssistant, Content: "earlier answer"},
	}

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat", `{"query":"follow up","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, seen, 3)
	require.Equal(t, "earlier question", seen[0].Content)
	require.Equal(t, "follow up", seen[2].Content)
}

func TestChatMissingQuery(t *testing.T) {
	svc, _ := newTestService(&fakeRunner{})

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat", `{"thread_id":"t1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(apierrors.ErrCodeInvalidArgument), resp.Code)
}

func TestChatErrorMapping(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ []ai.Message, _ agent.EventCallback) (*agent.Result, error) {
		return nil, apierrors.New(apierrors.ErrCodeTimeout, "model call timed out")
	}}
	svc, driver := newTestService(runner)

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat", `{"query":"hello","thread_id":"t1"}`)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	// Failed turns commit nothing.
	require.Empty(t, driver.messages["t1"])
}

func TestChatStreamEvents(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ []ai.Message, callback agent.EventCallback) (*agent.Result, error) {
		require.NoError(t, callback(agent.Event{Type: agent.EventTypeToken, Payload: "Hel"}))
		require.NoError(t, callback(agent.Event{Type: agent.EventTypeToken, Payload: "lo"}))
		return &agent.Result{Answer: "Hello", NewMessages: []ai.Message{ai.AssistantMessage("Hello")}}, nil
	}}
	svc, driver := newTestService(runner)

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat/stream", `{"query":"hi","thread_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	frames := parseSSEFrames(t, rec.Body.String())
	require.Len(t, frames, 3)
	require.Equal(t, "Hel", frames[0]["token"])
	require.Equal(t, "lo", frames[1]["token"])
	require.Equal(t, true, frames[2]["done"])
	require.Equal(t, "Hello", frames[2]["full_answer"])

	require.Len(t, driver.messages["t1"], 2)
}

func TestChatStreamError(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ []ai.Message, _ agent.EventCallback) (*agent.Result, error) {
		return nil, apierrors.New(apierrors.ErrCodeProviderCallFailed, "model exploded")
	}}
	svc, _ := newTestService(runner)

	rec := doRequest(svc, http.MethodPost, "/api/v1/chat/stream", `{"query":"hi"}`)
	frames := parseSSEFrames(t, rec.Body.String())
	require.Len(t, frames, 1)
	require.Contains(t, frames[0]["error"], "model exploded")
}

func TestHealth(t *testing.T) {
	svc, _ := newTestService(&fakeRunner{})
	rec := doRequest(svc, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	svc, _ := newTestService(&fakeRunner{})
	rec := doRequest(svc, http.MethodGet, "/api/v1/system/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot observability.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
}

func parseSSEFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	frames := []map[string]any{}
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}
