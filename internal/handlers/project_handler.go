package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/services"
)

type ProjectHandler struct {
	responder
	service services.ProjectService
	gate    *services.ConfirmationGate
}

func NewProjectHandler(service services.ProjectService, gate *services.ConfirmationGate, notices *services.NoticeBoard) *ProjectHandler {
	return &ProjectHandler{responder: responder{notices: notices}, service: service, gate: gate}
}

// projectView adds the per-viewer affordances to a project.
type projectView struct {
	models.Project
	CanDelete bool `json:"canDelete"`
}

func viewOf(p models.Project, userID string) projectView {
	return projectView{Project: p, CanDelete: p.IsOwner(userID)}
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	UserID string `json:"userId"`
}

// @Summary      My projects
// @Description  Projects the current identity is a member of
// @Tags         Projects
// @Produce      json
// @Success      200  {array}   projectView
// @Failure      500  {object}  map[string]string
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	userID := getUserID(c)
	projects, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "[project][list]", err, "failed to load projects")
		return
	}
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, viewOf(p, userID))
	}
	h.ok(c, http.StatusOK, out)
}

// @Summary      Create project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        body  body      projectRequest  true  "Project"
// @Success      201   {object}  projectView
// @Failure      400   {object}  map[string]string
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[project][create][bind]", err)
		return
	}
	userID := getUserID(c)
	p, err := h.service.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.fail(c, "[project][create]", err, "failed to create project")
		return
	}
	h.ok(c, http.StatusCreated, viewOf(*p, userID))
}

// GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[project][get]", err, "failed to load project")
		return
	}
	h.ok(c, http.StatusOK, viewOf(*p, getUserID(c)))
}

// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[project][update][bind]", err)
		return
	}
	p, err := h.service.Update(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		h.fail(c, "[project][update]", err, "failed to update project")
		return
	}
	h.ok(c, http.StatusOK, viewOf(*p, getUserID(c)))
}

// @Summary      Request project deletion
// @Description  Answers with a confirmation; the project, its tasks, their comments and the chat are removed once it is confirmed
// @Tags         Projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      202  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID := getUserID(c)
	p, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[project][delete]", err, "failed to load project")
		return
	}
	if !p.IsOwner(userID) {
		h.fail(c, "[project][delete][deny]", services.ErrNotProjectOwner, "")
		return
	}
	projectID := p.ID
	pending := h.gate.Request(userID,
		fmt.Sprintf("Delete project %q with all its tasks, comments and messages?", p.Name),
		func(ctx context.Context) error {
			return h.service.Delete(ctx, userID, projectID)
		})
	log.Printf("[project][delete][pending] id=%s confirmation=%s", projectID, pending.ID)
	h.accepted(c, pending)
}

// POST /projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[project][member][bind]", err)
		return
	}
	p, err := h.service.AddMember(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		h.fail(c, "[project][member][add]", err, "failed to add member")
		return
	}
	h.ok(c, http.StatusOK, viewOf(*p, getUserID(c)))
}

// DELETE /projects/:id/members/:uid
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "[project][member][remove]", err, "failed to load project")
		return
	}
	memberID := c.Param("uid")
	if p.IsOwner(memberID) {
		h.fail(c, "[project][member][remove]", models.Invalid("userId", "the project owner cannot be removed"), "")
		return
	}
	projectID := p.ID
	pending := h.gate.Request(getUserID(c),
		fmt.Sprintf("Remove %s from %q?", memberID, p.Name),
		func(ctx context.Context) error {
			_, err := h.service.RemoveMember(ctx, projectID, memberID)
			return err
		})
	h.accepted(c, pending)
}
