package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

type ConfirmationHandler struct {
	responder
	gate *services.ConfirmationGate
}

func NewConfirmationHandler(gate *services.ConfirmationGate, notices *services.NoticeBoard) *ConfirmationHandler {
	return &ConfirmationHandler{responder: responder{notices: notices}, gate: gate}
}

// GET /confirmations
func (h *ConfirmationHandler) Current(c *gin.Context) {
	p, ok := h.gate.Current(getUserID(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"confirmation": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmation": p})
}

// @Summary      Confirm a pending destructive action
// @Tags         Confirmations
// @Produce      json
// @Param        id   path      string  true  "Confirmation ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /confirmations/{id} [post]
func (h *ConfirmationHandler) Confirm(c *gin.Context) {
	if err := h.gate.Confirm(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		h.fail(c, "[confirm][run]", err, "action failed")
		return
	}
	h.ok(c, http.StatusOK, gin.H{"confirmed": true})
}

// DELETE /confirmations/:id
func (h *ConfirmationHandler) Cancel(c *gin.Context) {
	if err := h.gate.Cancel(getUserID(c), c.Param("id")); err != nil {
		h.fail(c, "[confirm][cancel]", err, "")
		return
	}
	c.Status(http.StatusNoContent)
}
