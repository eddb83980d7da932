package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filedeck/settings"
)

func (ctl *Controller) GetSettings(c *gin.Context) {
	current, err := settings.Load(ctl.SettingsPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, current)
}

// PutSettings overlays the request body onto the stored settings, so
// clients may send only the keys they changed.
func (ctl *Controller) PutSettings(c *gin.Context) {
	current, err := settings.Load(ctl.SettingsPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := c.ShouldBindJSON(&current); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := settings.Save(ctl.SettingsPath, current); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, current)
}
