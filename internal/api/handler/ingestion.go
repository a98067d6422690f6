package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/service"
)

// PushMessage is the inner message of a broker push delivery.
type PushMessage struct {
	Data domain.IngestionMessage `json:"data" binding:"required"`
	ID   string                  `json:"id"`
}

// PushRequest is the push-delivery envelope POSTed by the broker.
type PushRequest struct {
	Message      PushMessage `json:"message" binding:"required"`
	Subscription string      `json:"subscription"`
}

// IngestionHandler handles push-delivered ingestion jobs.
type IngestionHandler struct {
	ingestService *service.IngestService
}

// NewIngestionHandler creates a new ingestion handler.
// Parameters:
//   - ingestService: ingest service instance.
// Returns:
//   - *IngestionHandler: initialized handler.
func NewIngestionHandler(ingestService *service.IngestService) *IngestionHandler {
	return &IngestionHandler{
		ingestService: ingestService,
	}
}

// HandleIngestionJob handles POST /jobs/ingestion.
//
// Status codes steer the broker: 2xx acknowledges the message (including the
// benign lecture-not-found skip), 400 acknowledges a malformed envelope that
// could never succeed, and 500 leaves it unacknowledged for redelivery.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *IngestionHandler) HandleIngestionJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid push envelope: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push envelope: " + err.Error()})
		return
	}

	msg := req.Message.Data
	if msg.LectureID == "" || msg.StoragePath == "" {
		logger.CtxWarn(ctx, "Incomplete ingestion message: lecture_id=%q, storage_path=%q",
			msg.LectureID, msg.StoragePath)
		c.JSON(http.StatusBadRequest, gin.H{"error": "lecture_id and storage_path are required"})
		return
	}

	if req.Message.ID != "" {
		ctx = logger.SetJobID(ctx, req.Message.ID)
	}

	logger.CtxInfo(ctx, "Received ingestion job: subscription=%s, lecture_id=%s",
		req.Subscription, msg.LectureID)

	outcome, err := h.ingestService.Ingest(ctx, &msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to process ingestion job: " + err.Error(),
		})
		return
	}

	switch outcome {
	case service.OutcomeSkipped:
		c.JSON(http.StatusOK, gin.H{"status": "skipped"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
