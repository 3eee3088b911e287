package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sidenavRequest struct {
	Opened *bool `json:"opened" binding:"required"`
}

func (h HandlerSet) Sidenav(c *gin.Context) {
	opened, err := h.store.SidenavOpened(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": opened})
}

func (h HandlerSet) SetSidenav(c *gin.Context) {
	var req sidenavRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetSidenavOpened(c.Request.Context(), *req.Opened); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": *req.Opened})
}
