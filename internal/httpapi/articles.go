package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"TragedyWatch/internal/infrastructure/storage"
)

// DefaultLimit is used when the request carries no limit parameter.
const DefaultLimit = 50

type articleJSON struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	DetectedAt string `json:"detectedAt"`
}

type recentResponse struct {
	Count     int           `json:"count"`
	TotalInDB int           `json:"totalInDb"`
	Articles  []articleJSON `json:"articles"`
}

// RegisterArticleRoutes registers article-related routes.
func RegisterArticleRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/articles", h.handleRecent)
}

// handleRecent returns the most recent tragedies, newest first.
func (h *Handlers) handleRecent(c *gin.Context) {
	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	ctx := c.Request.Context()
	articles, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		h.logger.Error("list recent failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := h.store.Count(ctx)
	if err != nil {
		h.logger.Error("count failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := recentResponse{
		Count:     len(articles),
		TotalInDB: total,
		Articles:  make([]articleJSON, 0, len(articles)),
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, articleJSON{
			ID:         a.ID,
			Title:      a.Title,
			URL:        a.URL,
			DetectedAt: a.DetectedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return storage.ClampLimit(n), true
}
