package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/services"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	retrieval *services.RetrievalService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(retrieval *services.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

// SemanticSearch handles POST /search/semantic
func (h *SearchHandler) SemanticSearch(c echo.Context) error {
	var req models.SemanticSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.retrieval.SemanticSearch(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// HybridSearch handles POST /search/hybrid
func (h *SearchHandler) HybridSearch(c echo.Context) error {
	var req models.HybridSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.retrieval.HybridSearch(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// KeywordSearch handles POST /search/keyword
func (h *SearchHandler) KeywordSearch(c echo.Context) error {
	var req models.KeywordSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.retrieval.KeywordSearch(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/search/semantic", h.SemanticSearch)
	g.POST("/search/hybrid", h.HybridSearch)
	g.POST("/search/keyword", h.KeywordSearch)
}
