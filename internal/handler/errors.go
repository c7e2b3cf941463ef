package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/repository"
)

// writeServiceError maps the settlement core's error taxonomy to HTTP
// responses. Business-rule rejections always carry the wrapped message
// so the client can show the exact reason (version conflict, cash
// shortfall, refund-flow hint); unexpected errors stay opaque.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrPolicyViolation):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSequenceUnavailable),
		errors.Is(err, repository.ErrTxTimeout):
		// Retryable: the client may repeat the call (same idempotency
		// key for modifications).
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error(), "retryable": true})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
