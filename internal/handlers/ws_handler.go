package handlers

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/realtime"
)

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// GET /ws?token=...
func (h *WSHandler) Serve(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request, getUserID(c))
}
