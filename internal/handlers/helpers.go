package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

func getIdentity(c *gin.Context) models.Identity {
	v, _ := c.Get(middleware.CtxIdentity)
	id, _ := v.(models.Identity)
	return id
}

// responder writes JSON answers and keeps the caller's error notice in sync:
// a failure replaces it, a success clears it.
type responder struct {
	notices *services.NoticeBoard
}

func (r responder) ok(c *gin.Context, status int, body any) {
	if r.notices != nil {
		r.notices.Clear(getUserID(c))
	}
	c.JSON(status, body)
}

// fail maps err to a status code. fallback is shown for unexpected errors,
// whose details are only logged.
func (r responder) fail(c *gin.Context, tag string, err error, fallback string) {
	status, msg := classify(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Printf("%s[err] %v", tag, err)
	} else {
		log.Printf("%s[%d] %v", tag, status, err)
	}
	if r.notices != nil {
		r.notices.Set(getUserID(c), msg)
	}
	c.JSON(status, gin.H{"error": msg})
}

// badRequest reports a malformed request body.
func (r responder) badRequest(c *gin.Context, tag string, err error) {
	r.fail(c, tag, models.Invalid("", "invalid request body: "+err.Error()), "")
}

// accepted answers a destructive request with the confirmation it now waits on.
func (r responder) accepted(c *gin.Context, p services.Pending) {
	r.ok(c, http.StatusAccepted, gin.H{"confirmation": p})
}

func classify(err error, fallback string) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrConfirmationNotFound):
		return http.StatusNotFound, services.ErrConfirmationNotFound.Error()
	case errors.Is(err, services.ErrNotProjectOwner),
		errors.Is(err, services.ErrNotCommentAuthor):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrCustomTokensDisabled),
		errors.Is(err, services.ErrNoSession):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, fallback
}
