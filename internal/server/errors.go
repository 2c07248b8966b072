package server

import (
	"errors"
	"net/http"

	"ad-rewards-go/internal/api"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps the service error taxonomy onto HTTP status codes and the
// message shown to the caller. Storage details never reach the response.
func statusFor(err error) (int, string) {
	var blocked *api.AccountBlockedError
	switch {
	case errors.As(err, &blocked):
		return http.StatusForbidden, api.ErrAccountBlocked.Error()
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusForbidden, api.ErrUnauthorized.Error()
	case errors.Is(err, api.ErrVpnNotAllowed):
		return http.StatusForbidden, api.ErrVpnNotAllowed.Error()
	case errors.Is(err, api.ErrInsufficientPoints):
		return http.StatusConflict, api.ErrInsufficientPoints.Error()
	case errors.Is(err, api.ErrAlreadyProcessed):
		return http.StatusConflict, api.ErrAlreadyProcessed.Error()
	case errors.Is(err, api.ErrConflict):
		return http.StatusConflict, "concurrent update, please retry"
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound, api.ErrNotFound.Error()
	case errors.Is(err, api.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, api.ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable, api.ErrDatabaseUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError writes the JSON error body. A blocked account also gets the
// block reason.
func writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}

	body := gin.H{"error": message}
	var blocked *api.AccountBlockedError
	if errors.As(err, &blocked) && blocked.Reason != "" {
		body["reason"] = blocked.Reason
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
