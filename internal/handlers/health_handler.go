package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /healthz
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
