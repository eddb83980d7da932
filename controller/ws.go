package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filedeck/logging"
	"filedeck/websocket"
	eventsvc "filedeck/websocket/service/events"
	fssvc "filedeck/websocket/service/fs"
	"filedeck/websocket/service/heartbeat"
	syncsvc "filedeck/websocket/service/sync"
	"filedeck/websocket/service/terminal"
	"filedeck/websocket/service/upload"
)

// HandleWS upgrades the request and serves the full service set on it.
// Start blocks for the lifetime of the connection.
func (ctl *Controller) HandleWS(c *gin.Context) {
	wsServer, err := websocket.NewServer(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resolver := ctl.FS.Resolver

	wsServer.Register(fssvc.NewService(ctl.FS))
	wsServer.Register(terminal.NewLocalService(resolver))
	wsServer.Register(upload.NewService(resolver, ctl.Broadcaster))

	// Passive services never count toward connection activity: pushes
	// and keep-alives alone must not hold an idle connection open.
	wsServer.RegisterPassive(heartbeat.NewService())
	wsServer.RegisterPassive(eventsvc.NewService(ctl.Broadcaster))
	wsServer.RegisterPassive(syncsvc.NewService(ctl.Engine))

	if err := wsServer.Start(); err != nil {
		logging.S().Debugw("websocket session ended", "error", err)
	}
}
