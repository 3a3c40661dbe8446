// Package httpapi exposes stored tragedies and manual poll triggers over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"TragedyWatch/internal/ports"
	"TragedyWatch/internal/usecase"
)

// Orchestrator is the slice of the poll orchestrator the API drives.
type Orchestrator interface {
	Trigger(ctx context.Context) (int, error)
	Status() usecase.Status
}

// Handlers groups the collaborators shared by all routes.
type Handlers struct {
	store        ports.ArticleRepository
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(store ports.ArticleRepository, orchestrator Orchestrator, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handlers{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger.With("component", "httpapi"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	RegisterArticleRoutes(r, h)
	RegisterPollRoutes(r, h)
	RegisterHealthRoutes(r)
	return r
}

func (h *Handlers) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
