package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type transferRequest struct {
	Sources     []string `json:"sources"`
	Destination string   `json:"destination"`
}

type deleteRequest struct {
	Targets []string `json:"targets"`
}

func (ctl *Controller) ListFiles(c *gin.Context) {
	path := c.DefaultQuery("path", "local://")

	entries, err := ctl.FS.ListDirectory(path)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "entries": entries})
}

func (ctl *Controller) GetShortcuts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shortcuts": ctl.FS.Shortcuts()})
}

func (ctl *Controller) CopyFiles(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctl.FS.Copy(req.Sources, req.Destination)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ctl *Controller) MoveFiles(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctl.FS.Move(req.Sources, req.Destination)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (ctl *Controller) DeleteFiles(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ctl.FS.Delete(req.Targets)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
