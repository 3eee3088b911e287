package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/client"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/session"
)

// respondError maps failures to the {"error", "description"} body the
// learninghouse service itself uses.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, models.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":       "session_expired",
			"description": "Your session expired, please log in again.",
			"redirect":    h.guard.LoginRoute(),
		})
	case errors.Is(err, session.ErrSessionChanged):
		c.JSON(http.StatusConflict, models.ErrorMessage{Error: "session_changed", Description: err.Error()})
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.ErrorMessage{Error: apiErr.Key, Description: apiErr.Message})
	case errors.Is(err, session.ErrUnexpectedRole):
		c.JSON(http.StatusForbidden, models.ErrorMessage{Error: "invalid_role", Description: err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorMessage{Error: "internal_server_error", Description: err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorMessage{Error: "validation_error", Description: err.Error()})
}
