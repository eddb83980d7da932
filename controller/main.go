// Package controller wires the HTTP API. Handlers translate between gin
// and the filesystem facade; path validation failures map to 400 and
// everything else to 500.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filedeck/events"
	"filedeck/index"
	"filedeck/metrics"
	"filedeck/vfs"
	syncsvc "filedeck/websocket/service/sync"
)

type Controller struct {
	FS          *vfs.FS
	Store       *index.Store
	Engine      *syncsvc.Engine
	Broadcaster *events.Broadcaster

	// SettingsPath is the TOML file backing GET/PUT /api/settings.
	SettingsPath string
}

func SetupRoutes(r *gin.Engine, ctl *Controller) {
	api := r.Group("/api")
	{
		api.GET("/files", ctl.ListFiles)
		api.GET("/shortcuts", ctl.GetShortcuts)

		api.POST("/files/copy", ctl.CopyFiles)
		api.POST("/files/move", ctl.MoveFiles)
		api.POST("/files/delete", ctl.DeleteFiles)

		api.GET("/search", ctl.Search)
		api.GET("/analysis", ctl.Analysis)
		api.GET("/download", ctl.Download)

		api.GET("/settings", ctl.GetSettings)
		api.PUT("/settings", ctl.PutSettings)

		api.GET("/sync", ctl.SyncStatus)
	}

	r.GET("/ws", ctl.HandleWS)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", ctl.Healthz)
}

func (ctl *Controller) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.Engine.Status())
}

func (ctl *Controller) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortWith maps an operation error onto the right status code.
func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if vfs.IsPathError(err) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
