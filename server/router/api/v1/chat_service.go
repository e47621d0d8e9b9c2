package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/server/eventstream"
	apierrors "github.com/deskwise/deskwise/internal/errors"
	"github.com/deskwise/deskwise/internal/observability"
	"github.com/deskwise/deskwise/store"
)

// ChatRequest is the request body of both chat endpoints.
type ChatRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id"`
}

// ChatResponse is the response body of the non-streaming chat endpoint.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the error body of both chat endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const defaultThreadID = "1"

// Chat runs one blocking conversational turn.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	rc := observability.NewRequestContext(s.logger, req.ThreadID)
	rc.Info("chat turn started",
		slog.String("query", observability.TruncateForLog(req.Query, 120)))

	release, err := s.lockThread(c.Request().Context(), req.ThreadID)
	if err != nil {
		return errorJSON(c, apierrors.Wrap(apierrors.ErrCodeContextCanceled, "request canceled", err))
	}
	defer release()

	history, err := s.loadHistory(c.Request().Context(), req)
	if err != nil {
		rc.Error("failed to load history", err)
		return errorJSON(c, err)
	}

	result, err := s.Runner.RunTurn(c.Request().Context(), history, nil)
	if err != nil {
		rc.Error("chat turn failed", err,
			slog.String(observability.LogFieldErrorCode, string(apierrors.CodeOf(err))))
		return errorJSON(c, err)
	}

	if err := s.persistTurn(c.Request().Context(), req, result.NewMessages); err != nil {
		rc.Error("failed to persist turn", err)
		return errorJSON(c, err)
	}

	rc.Info("chat turn finished",
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return c.JSON(http.StatusOK, ChatResponse{Answer: result.Answer})
}

// ChatStream runs one conversational turn and streams it as Server-Sent
// Events, one JSON object per frame. The stream always terminates with
// either a done event or an error event; transport errors after the first
// flush cannot be converted into an HTTP status anymore.
// POST /api/v1/chat/stream
func (s *APIV1Service) ChatStream(c echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return errorJSON(c, err)
	}

	rc := observability.NewRequestContext(s.logger, req.ThreadID)
	rc.Info("chat stream started",
		slog.String("query", observability.TruncateForLog(req.Query, 120)))

	release, err := s.lockThread(c.Request().Context(), req.ThreadID)
	if err != nil {
		return errorJSON(c, apierrors.Wrap(apierrors.ErrCodeContextCanceled, "request canceled", err))
	}
	defer release()

	history, err := s.loadHistory(c.Request().Context(), req)
	if err != nil {
		rc.Error("failed to load history", err)
		return errorJSON(c, err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	mux := eventstream.NewMultiplexer(func(payload any) error {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", raw); err != nil {
			return err
		}
		resp.Flush()
		if s.Metrics != nil {
			s.Metrics.RecordStreamEvent()
		}
		return nil
	})

	result, err := s.Runner.RunTurn(c.Request().Context(), history, mux.OnEvent)
	if err != nil {
		rc.Error("chat stream failed", err,
			slog.String(observability.LogFieldErrorCode, string(apierrors.CodeOf(err))))
		return mux.Fail(err)
	}

	if err := s.persistTurn(c.Request().Context(), req, result.NewMessages); err != nil {
		rc.Error("failed to persist turn", err)
		return mux.Fail(err)
	}

	rc.Info("chat stream finished",
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return mux.Done()
}

func (s *APIV1Service) bindChatRequest(c echo.Context) (*ChatRequest, error) {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeInvalidArgument, "invalid request body", err)
	}
	if req.Query == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidArgument, "no query provided")
	}
	if req.ThreadID == "" {
		req.ThreadID = defaultThreadID
	}
	if !s.limiter.Allow(req.ThreadID) {
		return nil, apierrors.New(apierrors.ErrCodeRateLimitExceeded, "too many requests for this thread")
	}
	return &req, nil
}

// loadHistory returns the stored thread history with the new user message
// appended. The user message is not persisted yet; the whole turn is
// committed at once after it completes.
func (s *APIV1Service) loadHistory(ctx context.Context, req *ChatRequest) ([]ai.Message, error) {
	stored, err := s.Store.ListConversationMessages(ctx, &store.FindMessages{ThreadID: req.ThreadID})
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeProviderCallFailed, "failed to load conversation", err)
	}
	history, err := fromStoreMessages(stored)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeProviderCallFailed, "failed to decode conversation", err)
	}
	return append(history, ai.UserMessage(req.Query)), nil
}

// persistTurn commits the user message and everything the turn produced in a
// single atomic batch, so an interrupted request never leaves a dangling user
// message in the thread.
func (s *APIV1Service) persistTurn(ctx context.Context, req *ChatRequest, newMessages []ai.Message) error {
	batch := make([]*store.Message, 0, len(newMessages)+1)

	userMessage, err := toStoreMessage(ai.UserMessage(req.Query))
	if err != nil {
		return err
	}
	batch = append(batch, userMessage)

	for _, message := range newMessages {
		stored, err := toStoreMessage(message)
		if err != nil {
			return err
		}
		batch = append(batch, stored)
	}

	if err := s.Store.AppendConversationMessages(ctx, req.ThreadID, batch); err != nil {
		return apierrors.Wrap(apierrors.ErrCodeProviderCallFailed, "failed to persist conversation", err)
	}
	return nil
}

// errorJSON maps an error to its transport status and JSON body.
func errorJSON(c echo.Context, err error) error {
	code := apierrors.CodeOf(err)
	return c.JSON(httpStatusOf(code), ErrorResponse{
		Error: err.Error(),
		Code:  string(code),
	})
}

func httpStatusOf(code apierrors.ErrorCode) int {
	switch code {
	case apierrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case apierrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case apierrors.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case apierrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apierrors.ErrCodeContextCanceled:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
