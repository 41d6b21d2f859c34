package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/interview-retrieval-api/internal/models"
	"github.com/interview-retrieval-api/internal/services"
)

// EvaluationHandler handles evaluation dataset endpoints
type EvaluationHandler struct {
	evals *services.EvaluationService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evals *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evals: evals}
}

// CreateDataset handles POST /evaluations/datasets
func (h *EvaluationHandler) CreateDataset(c echo.Context) error {
	var ds models.EvaluationDataset
	if err := c.Bind(&ds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	stored, err := h.evals.SaveDataset(c.Request().Context(), ds)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// GetDataset handles GET /evaluations/datasets/:id
func (h *EvaluationHandler) GetDataset(c echo.Context) error {
	ds, err := h.evals.GetDataset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ds)
}

// RunDataset handles POST /evaluations/datasets/:id/run
func (h *EvaluationHandler) RunDataset(c echo.Context) error {
	var cfg models.EvaluationConfig
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := h.evals.RunDataset(c.Request().Context(), c.Param("id"), cfg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListResults handles GET /evaluations/datasets/:id/results
func (h *EvaluationHandler) ListResults(c echo.Context) error {
	results, err := h.evals.ListResults(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, results)
}

// RegisterRoutes registers evaluation routes
func (h *EvaluationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/evaluations/datasets", h.CreateDataset)
	g.GET("/evaluations/datasets/:id", h.GetDataset)
	g.POST("/evaluations/datasets/:id/run", h.RunDataset)
	g.GET("/evaluations/datasets/:id/results", h.ListResults)
}
