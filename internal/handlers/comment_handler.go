package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

type CommentHandler struct {
	responder
	service services.CommentService
	gate    *services.ConfirmationGate
}

func NewCommentHandler(service services.CommentService, gate *services.ConfirmationGate, notices *services.NoticeBoard) *CommentHandler {
	return &CommentHandler{responder: responder{notices: notices}, service: service, gate: gate}
}

type commentRequest struct {
	Text string `json:"text"`
}

// GET /tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[comment][list]", err, "failed to load comments")
		return
	}
	h.ok(c, http.StatusOK, comments)
}

// POST /tasks/:id/comments
func (h *CommentHandler) Add(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[comment][add][bind]", err)
		return
	}
	comment, err := h.service.Add(c.Request.Context(), c.Param("id"), getUserID(c), req.Text)
	if err != nil {
		h.fail(c, "[comment][add]", err, "failed to add comment")
		return
	}
	h.ok(c, http.StatusCreated, comment)
}

// DELETE /comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID := getUserID(c)
	comment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[comment][delete]", err, "failed to load comment")
		return
	}
	if comment.UserID != userID {
		h.fail(c, "[comment][delete][deny]", services.ErrNotCommentAuthor, "")
		return
	}
	commentID := comment.ID
	pending := h.gate.Request(userID, "Delete this comment?", func(ctx context.Context) error {
		return h.service.Delete(ctx, userID, commentID)
	})
	h.accepted(c, pending)
}
