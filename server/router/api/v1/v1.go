package v1

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/plugin/ai"
	"github.com/deskwise/deskwise/plugin/ai/agent"
	"github.com/deskwise/deskwise/internal/observability"
	"github.com/deskwise/deskwise/server/middleware"
	"github.com/deskwise/deskwise/store"
)

// TurnRunner executes one conversational turn over the given history.
// *agent.Controller is the production implementation.
type TurnRunner interface {
	RunTurn(ctx context.Context, history []ai.Message, callback agent.EventCallback) (*agent.Result, error)
}

// APIV1Service wires the chat endpoints.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Runner  TurnRunner
	Metrics *observability.Metrics

	logger  *slog.Logger
	limiter *middleware.RateLimiter

	// threadLocks serializes turns per thread: two concurrent requests on the
	// same thread_id would otherwise interleave their history reads and
	// atomic appends.
	mu          sync.Mutex
	threadLocks map[string]*semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, runner TurnRunner, metrics *observability.Metrics, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:     profile,
		Store:       st,
		Runner:      runner,
		Metrics:     metrics,
		logger:      logger,
		limiter:     middleware.NewRateLimiter(10, 20),
		threadLocks: make(map[string]*semaphore.Weighted),
	}
}

// CleanupLimiters drops rate limiter state for idle threads. The server calls
// this on a timer so the per-thread map does not grow unbounded.
func (s *APIV1Service) CleanupLimiters() {
	s.limiter.Cleanup()
}

// lockThread acquires the per-thread turn lock, respecting ctx cancellation.
func (s *APIV1Service) lockThread(ctx context.Context, threadID string) (func(), error) {
	s.mu.Lock()
	sem, ok := s.threadLocks[threadID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.threadLocks[threadID] = sem
	}
	s.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}

// RegisterRoutes registers all v1 routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Health)

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/chat", s.Chat)
	apiV1.POST("/chat/stream", s.ChatStream)
	apiV1.GET("/system/metrics", s.GetMetrics)
}

// Health returns liveness status.
// GET /healthz
func (s *APIV1Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetMetrics returns a snapshot of turn and tool metrics.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Metrics.Snapshot())
}
