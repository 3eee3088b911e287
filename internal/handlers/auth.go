package handlers

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/models"
)

type sessionResponse struct {
	Authenticated    bool       `json:"authenticated"`
	Role             string     `json:"role,omitempty"`
	Label            string     `json:"label,omitempty"`
	RefreshExpiry    *time.Time `json:"refreshExpiry,omitempty"`
	RemainingSeconds int64      `json:"remainingSeconds"`
}

func (h HandlerSet) newSessionResponse(state models.SessionState) sessionResponse {
	resp := sessionResponse{Authenticated: state.Authenticated()}
	if !resp.Authenticated {
		return resp
	}
	resp.Role = state.Role.String()
	resp.Label = state.Role.Label()
	resp.RefreshExpiry = state.RefreshExpiry
	if state.RefreshExpiry != nil {
		resp.RemainingSeconds = int64(time.Until(*state.RefreshExpiry).Seconds())
		if resp.RemainingSeconds < 0 {
			resp.RemainingSeconds = 0
		}
	}
	return resp
}

func (h HandlerSet) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.sessions.LoginAdmin(c.Request.Context(), req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newSessionResponse(h.sessions.State()))
}

type apiKeyLoginRequest struct {
	APIKey string `json:"apikey" binding:"required"`
}

func (h HandlerSet) LoginAPIKey(c *gin.Context) {
	var req apiKeyLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if _, err := h.sessions.LoginAPIKey(c.Request.Context(), req.APIKey); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newSessionResponse(h.sessions.State()))
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("logout left storage errors behind")
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.newSessionResponse(h.sessions.State()))
}

// SessionStream pushes the session state as server sent events, starting
// with the current state.
func (h HandlerSet) SessionStream(c *gin.Context) {
	states, cancel := h.sessions.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case state, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("session", h.newSessionResponse(state))
			return true
		}
	})
}

// ChangePassword changes the admin password and logs in again with the new
// one so the session continues on fresh tokens.
func (h HandlerSet) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.sessions.ChangePassword(ctx, req.OldPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.sessions.LoginAdmin(ctx, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newSessionResponse(h.sessions.State()))
}

func (h HandlerSet) ListAPIKeys(c *gin.Context) {
	keys, err := h.api.ListAPIKeys(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": keys})
}

var apiKeyDescriptionPattern = regexp.MustCompile(`^[A-Za-z]\w{1,13}[A-Za-z0-9]$`)

var (
	errDescriptionPattern = errors.New("description must be 3 to 15 word characters, starting with a letter and ending with a letter or digit")
	errAPIKeyRole         = errors.New("api keys can only have the user or trainer role")
)

type createAPIKeyRequest struct {
	Description string      `json:"description" binding:"required"`
	Role        models.Role `json:"role"`
}

func (h HandlerSet) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !apiKeyDescriptionPattern.MatchString(req.Description) {
		badRequest(c, errDescriptionPattern)
		return
	}
	if !req.Role.IsAPIKeyRole() {
		badRequest(c, errAPIKeyRole)
		return
	}

	key, err := h.api.CreateAPIKey(c.Request.Context(), req.Description, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, key)
}

func (h HandlerSet) DeleteAPIKey(c *gin.Context) {
	deleted, err := h.api.DeleteAPIKey(c.Request.Context(), c.Param("description"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": deleted})
}
