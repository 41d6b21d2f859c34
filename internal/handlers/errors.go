package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/interview-retrieval-api/internal/models"
)

// httpError maps the core's error taxonomy onto HTTP status codes.
// Unknown errors surface as 500 so store/index failures propagate rather
// than being masked as empty results.
func httpError(err error) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ve.Error())
	}
	var qe *models.InvalidQueryError
	if errors.As(err, &qe) {
		return echo.NewHTTPError(http.StatusBadRequest, qe.Error())
	}
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if errors.Is(err, models.ErrStorageUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
