package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

type ChatHandler struct {
	responder
	service services.ChatService
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func NewChatHandler(service services.ChatService, notices *services.NoticeBoard) *ChatHandler {
	return &ChatHandler{responder: responder{notices: notices}, service: service}
}

// @Summary      Project chat history
// @Description  Messages of a project, oldest first
// @Tags         Chat
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {array}   models.ChatMessage
// @Router       /projects/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	messages, err := h.service.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[chat][list]", err, "failed to load messages")
		return
	}
	h.ok(c, http.StatusOK, messages)
}

// POST /projects/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[chat][send][bind]", err)
		return
	}
	msg, err := h.service.Send(c.Request.Context(), c.Param("id"), getUserID(c), req.Message)
	if err != nil {
		h.fail(c, "[chat][send]", err, "failed to send message")
		return
	}
	h.ok(c, http.StatusCreated, msg)
}
