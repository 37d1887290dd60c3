package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type SessionHandler struct {
	responder
	sessions *services.SessionService
	notices  *services.NoticeBoard
}

func NewSessionHandler(sessions *services.SessionService, notices *services.NoticeBoard) *SessionHandler {
	return &SessionHandler{responder: responder{notices: notices}, sessions: sessions, notices: notices}
}

type establishRequest struct {
	Token string `json:"token"`
}

type sessionState struct {
	Identity *models.Identity `json:"identity"`
	Ready    bool             `json:"ready"`
}

// @Summary      Establish a session
// @Description  Signs in with a custom token when one is given, anonymously otherwise
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body      establishRequest  false  "Custom token"
// @Success      200   {object}  services.Session
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /session [post]
func (h *SessionHandler) Establish(c *gin.Context) {
	var req establishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("[session][establish][bind][err] %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	sess, err := h.sessions.Establish(c.Request.Context(), req.Token)
	if err != nil {
		status, msg := classify(err, "failed to establish session")
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// @Summary      Current session
// @Tags         Session
// @Produce      json
// @Success      200  {object}  sessionState
// @Router       /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, err := h.sessions.Resolve(middleware.BearerToken(c))
	if err != nil {
		c.JSON(http.StatusOK, sessionState{})
		return
	}
	c.JSON(http.StatusOK, sessionState{Identity: &id, Ready: true})
}

// GET /session/notice
func (h *SessionHandler) GetNotice(c *gin.Context) {
	msg, ok := h.notices.Get(getUserID(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"notice": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notice": msg})
}

// DELETE /session/notice
func (h *SessionHandler) DismissNotice(c *gin.Context) {
	h.notices.Clear(getUserID(c))
	c.Status(http.StatusNoContent)
}
