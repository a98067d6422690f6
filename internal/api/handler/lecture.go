package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arlen/lectern/internal/repository"
)

// LectureHandler handles lecture read endpoints.
type LectureHandler struct {
	lectureRepo *repository.LectureRepository
	slideRepo   *repository.SlideRepository
}

// NewLectureHandler creates a new lecture handler.
// Parameters:
//   - lectureRepo: lecture repository instance.
//   - slideRepo: slide repository instance.
// Returns:
//   - *LectureHandler: initialized handler.
func NewLectureHandler(lectureRepo *repository.LectureRepository, slideRepo *repository.SlideRepository) *LectureHandler {
	return &LectureHandler{
		lectureRepo: lectureRepo,
		slideRepo:   slideRepo,
	}
}

// ListLectures handles GET /api/v1/lectures.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *LectureHandler) ListLectures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	lectures, err := h.lectureRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list lectures: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lectures": lectures,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetLecture handles GET /api/v1/lectures/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *LectureHandler) GetLecture(c *gin.Context) {
	id := c.Param("id")

	lecture, err := h.lectureRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Lecture not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load lecture: " + err.Error(),
		})
		return
	}

	chunkCount, err := h.slideRepo.CountChunks(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count chunks: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lecture":     lecture,
		"chunk_count": chunkCount,
	})
}

// ListSlides handles GET /api/v1/lectures/:id/slides.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *LectureHandler) ListSlides(c *gin.Context) {
	id := c.Param("id")

	slides, err := h.slideRepo.ListByLecture(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list slides: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slides": slides,
		"total":  len(slides),
	})
}
