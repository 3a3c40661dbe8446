package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"TragedyWatch/internal/usecase"
)

type statusJSON struct {
	State               string      `json:"state"`
	NextRunAt           *time.Time  `json:"nextRunAt,omitempty"`
	LastStartedAt       *time.Time  `json:"lastStartedAt,omitempty"`
	LastFinishedAt      *time.Time  `json:"lastFinishedAt,omitempty"`
	LastError           string      `json:"lastError,omitempty"`
	ConsecutiveFailures int         `json:"consecutiveFailures"`
	InFlightManual      int         `json:"inFlightManual"`
	LastReport          *reportJSON `json:"lastReport,omitempty"`
}

type reportJSON struct {
	RunID          string `json:"runId"`
	Trigger        string `json:"trigger"`
	Stage          string `json:"stage"`
	Fetched        int    `json:"fetched"`
	Matched        int    `json:"matched"`
	Created        int    `json:"created"`
	Duplicates     int    `json:"duplicates"`
	StoreFailures  int    `json:"storeFailures"`
	NotifyFailures int    `json:"notifyFailures"`
	DurationMillis int64  `json:"durationMs"`
}

// RegisterPollRoutes registers the manual trigger and orchestrator status.
func RegisterPollRoutes(r *gin.Engine, h *Handlers) {
	r.POST("/poll", h.handlePoll)
	r.GET("/status", h.handleStatus)
}

// handlePoll starts a background poll and answers with the count before it runs.
func (h *Handlers) handlePoll(c *gin.Context) {
	count, err := h.orchestrator.Trigger(c.Request.Context())
	if errors.Is(err, usecase.ErrOrchestratorStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("trigger poll failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":             "Poll triggered",
		"currentArticleCount": count,
	})
}

func (h *Handlers) handleStatus(c *gin.Context) {
	s := h.orchestrator.Status()
	resp := statusJSON{
		State:               string(s.State),
		NextRunAt:           optionalTime(s.NextRunAt),
		LastStartedAt:       optionalTime(s.LastStartedAt),
		LastFinishedAt:      optionalTime(s.LastFinishedAt),
		LastError:           s.LastError,
		ConsecutiveFailures: s.ConsecutiveFailures,
		InFlightManual:      s.InFlightManual,
	}
	if r := s.LastReport; r != nil {
		resp.LastReport = &reportJSON{
			RunID:          r.RunID,
			Trigger:        string(r.Trigger),
			Stage:          string(r.Stage),
			Fetched:        r.Fetched,
			Matched:        r.Matched,
			Created:        r.Created,
			Duplicates:     r.Duplicates,
			StoreFailures:  r.StoreFailures,
			NotifyFailures: r.NotifyFailures,
			DurationMillis: r.Duration().Milliseconds(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
