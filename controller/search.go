package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultSearchLimit = 100
	largestFilesCount  = 10
)

func (ctl *Controller) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	results, err := ctl.Store.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// Analysis reports subtree totals, the per-category breakdown, and the
// largest files under a virtual path prefix.
func (ctl *Controller) Analysis(c *gin.Context) {
	prefix := c.DefaultQuery("path", "")
	ctx := c.Request.Context()

	stats, err := ctl.Store.DirStats(ctx, prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	breakdown, err := ctl.Store.CategoryBreakdown(ctx, prefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	largest, err := ctl.Store.LargestFiles(ctx, prefix, largestFilesCount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":      prefix,
		"stats":     stats,
		"breakdown": breakdown,
		"largest":   largest,
	})
}
