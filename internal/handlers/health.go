package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/models"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = "error"
			h.log.Error().Err(err).Msg("database ping failed")
		}
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "error"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	mode, err := h.modes.Get(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("read cached service mode")
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Database:    dbStatus,
		Cache:       cacheStatus,
		Service:     string(mode),
		Environment: h.cfg.Environment,
	})
}

// Mode answers from the mode cache and asks the service only when the
// cache has nothing.
func (h HandlerSet) Mode(c *gin.Context) {
	ctx := c.Request.Context()

	mode, err := h.modes.Get(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("read cached service mode")
	}
	if mode == models.ServiceModeUnknown || mode == "" {
		mode, err = h.api.Mode(ctx)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if err := h.modes.Set(ctx, mode); err != nil {
			h.log.Warn().Err(err).Msg("cache service mode")
		}
	}

	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (h HandlerSet) Versions(c *gin.Context) {
	versions, err := h.api.Versions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}
