package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/repository"
)

// SegmentsHandler handles segment and interview storage endpoints
type SegmentsHandler struct {
	store repository.SegmentStore
}

// NewSegmentsHandler creates a new segments handler
func NewSegmentsHandler(store repository.SegmentStore) *SegmentsHandler {
	return &SegmentsHandler{store: store}
}

// UpsertSegment handles POST /segments
func (h *SegmentsHandler) UpsertSegment(c echo.Context) error {
	var seg models.Segment
	if err := c.Bind(&seg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	stored, err := h.store.Upsert(c.Request().Context(), seg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// PutSegmentBatch handles POST /segments/batch. The batch is all-or-nothing.
func (h *SegmentsHandler) PutSegmentBatch(c echo.Context) error {
	var segs []models.Segment
	if err := c.Bind(&segs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(segs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Batch must not be empty")
	}

	stored, err := h.store.PutBatch(c.Request().Context(), segs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// UpsertInterview handles PUT /interviews/:id
func (h *SegmentsHandler) UpsertInterview(c echo.Context) error {
	var iv models.Interview
	if err := c.Bind(&iv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	iv.InterviewID = c.Param("id")

	stored, err := h.store.UpsertInterview(c.Request().Context(), iv)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// GetSegments handles GET /interviews/:id/segments
func (h *SegmentsHandler) GetSegments(c echo.Context) error {
	var role *models.SpeakerRole
	if v := c.QueryParam("speaker_role"); v != "" {
		r := models.SpeakerRole(v)
		if !r.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Unrecognized speaker_role")
		}
		role = &r
	}

	segments, err := h.store.GetByInterview(c.Request().Context(), c.Param("id"), role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, segments)
}

// DeleteInterview handles DELETE /interviews/:id
func (h *SegmentsHandler) DeleteInterview(c echo.Context) error {
	deleted, err := h.store.DeleteInterview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": deleted})
}

// Stats handles GET /stats
func (h *SegmentsHandler) Stats(c echo.Context) error {
	stats, err := h.store.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers segment and interview routes
func (h *SegmentsHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/segments", h.UpsertSegment)
	g.POST("/segments/batch", h.PutSegmentBatch)
	g.PUT("/interviews/:id", h.UpsertInterview)
	g.GET("/interviews/:id/segments", h.GetSegments)
	g.DELETE("/interviews/:id", h.DeleteInterview)
	g.GET("/stats", h.Stats)
}
