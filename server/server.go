package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/plugin/ai/agent"
	"github.com/deskwise/deskwise/server/inbox"
	"github.com/deskwise/deskwise/internal/observability"
	"github.com/deskwise/deskwise/server/retrieval"
	apiv1 "github.com/deskwise/deskwise/server/router/api/v1"
	"github.com/deskwise/deskwise/server/runner/ingest"
	"github.com/deskwise/deskwise/store"
)

// Server assembles the HTTP surface and the background runners.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *observability.Metrics
	analyzer   *inbox.Analyzer
	ingest     *ingest.Runner
	apiV1      *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	if !profile.IsAIEnabled() {
		return nil, errors.New("AI provider is not configured")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		echomiddleware.Recover(),
		echomiddleware.CORS(),
	)

	s := &Server{
		Profile:    profile,
		Store:      st,
		echoServer: e,
		metrics:    observability.NewMetrics(0),
	}

	aiConfig := ai.NewConfigFromProfile(profile)
	llmService, err := ai.NewLLMService(aiConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}
	embeddingService, err := ai.NewEmbeddingService(aiConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	tools := []agent.Tool{}

	// Document retrieval needs vector search, which only postgres provides.
	if profile.Driver == "postgres" {
		retriever := retrieval.NewRetriever(st, embeddingService, slog.Default())
		tools = append(tools, retrieval.NewTool(retriever))
		if profile.IngestEnabled {
			s.ingest = ingest.NewRunner(st, embeddingService, profile.Data)
		}
	} else {
		slog.Warn("document retrieval disabled, requires the postgres driver")
	}

	if profile.InboxProviderURL != "" {
		provider := inbox.NewHTTPProvider(profile.InboxProviderURL, profile.InboxProviderToken)
		s.analyzer = inbox.NewAnalyzer(llmService, slog.Default())
		gateway := inbox.NewGateway(provider, s.analyzer, slog.Default())
		tools = append(tools, inbox.NewTool(gateway))
	} else {
		slog.Warn("inbox intelligence disabled, no provider configured")
	}

	controller := agent.NewController(llmService, agent.Config{}, tools, s.metrics)

	s.apiV1 = apiv1.NewAPIV1Service(profile, st, controller, s.metrics, slog.Default())
	s.apiV1.RegisterRoutes(e)

	return s, nil
}

const limiterCleanupInterval = 5 * time.Minute

// Start runs the HTTP listener and background runners until the context is
// canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.ingest != nil {
		go s.ingest.Run(ctx)
	}
	go s.runLimiterCleanup(ctx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	return s.echoServer.Start(address)
}

// runLimiterCleanup drops idle per-thread rate limiter state on a timer.
func (s *Server) runLimiterCleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.apiV1.CleanupLimiters()
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the HTTP listener gracefully and releases resources.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if s.analyzer != nil {
		s.analyzer.Close()
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}
