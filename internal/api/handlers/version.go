package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VersionInfo contains server build information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
}

// VersionHandler serves build information.
type VersionHandler struct {
	info VersionInfo
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler(info VersionInfo) *VersionHandler {
	return &VersionHandler{info: info}
}

// RegisterPublicRoutes registers version routes that don't require authentication.
func (h *VersionHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/version", h.Get)
}

// Get returns the server version information.
//
//	@Summary		Server version
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionInfo
//	@Router			/version [get]
func (h *VersionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
