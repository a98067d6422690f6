package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/service"
)

// AdminHandler handles admin operations.
type AdminHandler struct {
	ingestService *service.IngestService
	logger        *logger.Logger

	// Re-ingest job state
	mu            sync.RWMutex
	isRunning     bool
	lastLectureID string
	lastRunTime   time.Time
	lastRunStatus string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - ingestService: ingest service instance.
//   - log: logger instance.
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(ingestService *service.IngestService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		ingestService: ingestService,
		logger:        log,
	}
}

// ReingestRequest represents the re-ingest API request. It carries the same
// fields as the broker message, without the push envelope.
type ReingestRequest struct {
	LectureID          string `json:"lecture_id" binding:"required"`
	StoragePath        string `json:"storage_path" binding:"required"`
	CustomerIdentifier string `json:"customer_identifier"`
	Name               string `json:"name"`
	Email              string `json:"email"`
}

// ReingestStatusResponse represents the re-ingest status.
type ReingestStatusResponse struct {
	IsRunning     bool   `json:"is_running"`
	LastLectureID string `json:"last_lecture_id,omitempty"`
	LastRunTime   string `json:"last_run_time,omitempty"`
	LastRunStatus string `json:"last_run_status,omitempty"`
}

// TriggerReingest handles POST /api/v1/admin/reingest.
//
// Runs ingestion in the background and returns immediately. Meant for
// operators replaying a message that the broker has given up on.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerReingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req ReingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid re-ingest request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// One run at a time
	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Re-ingest request rejected: already running, lecture_id=%s, client_ip=%s",
			req.LectureID, c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "Re-ingestion is already running"})
		return
	}
	h.isRunning = true
	h.lastLectureID = req.LectureID
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting re-ingestion: lecture_id=%s, storage_path=%s, client_ip=%s",
		req.LectureID, req.StoragePath, c.ClientIP())

	msg := &domain.IngestionMessage{
		LectureID:          req.LectureID,
		StoragePath:        req.StoragePath,
		CustomerIdentifier: req.CustomerIdentifier,
		Name:               req.Name,
		Email:              req.Email,
	}

	// Detach from the request context so the run survives the HTTP response
	runCtx := h.logger.WithContext(context.Background())
	runCtx = logger.SetComponent(runCtx, "admin")

	go func() {
		startTime := time.Now()
		outcome, err := h.ingestService.Ingest(runCtx, msg)
		duration := time.Since(startTime)

		h.mu.Lock()
		h.isRunning = false
		h.lastRunTime = time.Now()
		if err != nil {
			h.lastRunStatus = "failed: " + err.Error()
		} else {
			h.lastRunStatus = outcome.String()
		}
		h.mu.Unlock()

		if err != nil {
			logger.With(logger.Fields{
				logger.FieldDurationMs: duration.Milliseconds(),
			}).Error(runCtx, "Re-ingestion failed: lecture_id=%s, error=%v", msg.LectureID, err)
			return
		}

		logger.With(logger.Fields{
			logger.FieldDurationMs: duration.Milliseconds(),
		}).Info(runCtx, "Re-ingestion finished: lecture_id=%s, outcome=%s", msg.LectureID, outcome)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Re-ingestion started",
		"lecture_id": req.LectureID,
	})
}

// GetReingestStatus returns the current re-ingest status.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) GetReingestStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ctx := c.Request.Context()
	logger.CtxDebug(ctx, "Re-ingest status requested: client_ip=%s, is_running=%v", c.ClientIP(), h.isRunning)

	resp := ReingestStatusResponse{
		IsRunning:     h.isRunning,
		LastLectureID: h.lastLectureID,
		LastRunStatus: h.lastRunStatus,
	}

	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
