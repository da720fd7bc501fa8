package handlers

import (
	"context"
	"errors"
	"time"

	"productos/internal/cache"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports whether the store and the cache answer.
type HealthHandler struct {
	pingDB func(ctx context.Context) error
	cache  cache.Cache
}

// NewHealthHandler creates a new HealthHandler. pingDB may be nil when the
// store lives in memory.
func NewHealthHandler(pingDB func(ctx context.Context) error, c cache.Cache) *HealthHandler {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &HealthHandler{pingDB: pingDB, cache: c}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	dbStatus := "ok"
	if h.pingDB != nil {
		if err := h.pingDB(ctx); err != nil {
			dbStatus = "error"
			status = fiber.StatusServiceUnavailable
		}
	}

	cacheStatus := "ok"
	if err := h.cache.Ping(ctx); err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			cacheStatus = "disabled"
		} else {
			cacheStatus = "error"
		}
	}

	overall := "healthy"
	if status != fiber.StatusOK {
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": dbStatus,
		"cache":    cacheStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}
