package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

// StatusFor maps a service error to an HTTP status code
func StatusFor(err error) int {
	switch lifecycle.KindOf(err) {
	case lifecycle.ErrPreconditionFailed:
		return http.StatusPreconditionFailed
	case lifecycle.ErrAuthorizationFailed:
		return http.StatusForbidden
	case lifecycle.ErrConcurrencyConflict:
		return http.StatusConflict
	case lifecycle.ErrNotFound:
		return http.StatusNotFound
	case lifecycle.ErrInvalidIntent:
		return http.StatusBadRequest
	case lifecycle.ErrInvariantViolation:
		return http.StatusInternalServerError
	}
	if errors.Is(err, port.ErrVersionConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Unclassified errors are logged and
// reported without detail.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if lifecycle.KindOf(err) == nil && status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err)
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
