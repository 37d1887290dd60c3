package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
	"taskhub/internal/services"
)

// AssignmentNotifier tells an assignee about a task. *services.TelegramNotifier
// implements it.
type AssignmentNotifier interface {
	NotifyAssignee(ctx context.Context, prefix string, t *models.Task)
}

type TaskHandler struct {
	responder
	service services.TaskService
	gate    *services.ConfirmationGate

	// assignment notifications, may be nil
	tg AssignmentNotifier
}

func NewTaskHandler(service services.TaskService, gate *services.ConfirmationGate, notices *services.NoticeBoard, tg AssignmentNotifier) *TaskHandler {
	return &TaskHandler{responder: responder{notices: notices}, service: service, gate: gate, tg: tg}
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
}

type itemRequest struct {
	Text string `json:"text"`
}

// GET /projects/:id/tasks
func (h *TaskHandler) ListByProject(c *gin.Context) {
	tasks, err := h.service.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[task][list]", err, "failed to load tasks")
		return
	}
	h.ok(c, http.StatusOK, tasks)
}

// GET /tasks/mine
func (h *TaskHandler) Mine(c *gin.Context) {
	tasks, err := h.service.ListByAssignee(c.Request.Context(), getUserID(c))
	if err != nil {
		h.fail(c, "[task][mine]", err, "failed to load tasks")
		return
	}
	h.ok(c, http.StatusOK, tasks)
}

// @Summary      Create task
// @Description  Validates the task form; a blank assignee defaults to the caller
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Project ID"
// @Param        body  body      models.TaskForm  true  "Task form"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	var form models.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "[task][create][bind]", err)
		return
	}
	fields, err := form.Submit(userID)
	if err != nil {
		h.fail(c, "[task][create]", err, "")
		return
	}
	task, err := h.service.Create(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		h.fail(c, "[task][create]", err, "failed to create task")
		return
	}
	h.ok(c, http.StatusCreated, task)

	if task.AssignedTo != userID {
		h.notify(c.Request.Context(), "📌 New task", task)
	}
}

// notify sends the assignment message off the request path.
func (h *TaskHandler) notify(ctx context.Context, prefix string, task *models.Task) {
	if h.tg == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go h.tg.NotifyAssignee(ctx, prefix, task)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[task][getByID]", err, "failed to get task")
		return
	}
	h.ok(c, http.StatusOK, task)
}

// @Summary      Edit task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Task ID"
// @Param        body  body      models.TaskForm  true  "Task form"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	userID := getUserID(c)
	var form models.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, "[task][update][bind]", err)
		return
	}
	fields, err := form.Submit(userID)
	if err != nil {
		h.fail(c, "[task][update]", err, "")
		return
	}
	current, err := h.service.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, "[task][update]", err, "failed to get task")
		return
	}
	updated, err := h.service.Update(ctx, current.ID, fields.Patch())
	if err != nil {
		h.fail(c, "[task][update]", err, "failed to update task")
		return
	}
	log.Printf("[task][update][ok] id=%s", updated.ID)
	h.ok(c, http.StatusOK, updated)

	if updated.AssignedTo != current.AssignedTo && updated.AssignedTo != userID {
		h.notify(ctx, "✏️ Task assigned to you", updated)
	}
}

// PATCH /tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[task][status][bind]", err)
		return
	}
	task, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, "[task][status]", err, "failed to update status")
		return
	}
	h.ok(c, http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "[task][delete]", err, "failed to get task")
		return
	}
	taskID := task.ID
	pending := h.gate.Request(getUserID(c),
		fmt.Sprintf("Delete task %q and its comments?", task.Title),
		func(ctx context.Context) error {
			return h.service.Delete(ctx, taskID)
		})
	h.accepted(c, pending)
}

// AddItem handles POST /tasks/:id/{subtasks|checklists}.
func (h *TaskHandler) AddItem(list models.ItemList) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "[task][item][bind]", err)
			return
		}
		task, err := h.service.AddItem(c.Request.Context(), c.Param("id"), list, req.Text)
		if err != nil {
			h.fail(c, "[task]["+string(list)+"][add]", err, "failed to add item")
			return
		}
		h.ok(c, http.StatusCreated, task)
	}
}

// ToggleItem flips the completed flag of the item named by the path param.
func (h *TaskHandler) ToggleItem(list models.ItemList, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := h.service.ToggleItem(c.Request.Context(), c.Param("id"), list, c.Param(param))
		if err != nil {
			h.fail(c, "[task]["+string(list)+"][toggle]", err, "failed to update item")
			return
		}
		h.ok(c, http.StatusOK, task)
	}
}

func (h *TaskHandler) DeleteItem(list models.ItemList, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.fail(c, "[task]["+string(list)+"][delete]", err, "failed to get task")
			return
		}
		itemID := c.Param(param)
		var item *models.Item
		for _, it := range task.Items(list) {
			if it.ID == itemID {
				item = &it
				break
			}
		}
		if item == nil {
			h.fail(c, "[task]["+string(list)+"][delete]", fmt.Errorf("item %s: %w", itemID, repositories.ErrNotFound), "")
			return
		}
		taskID := task.ID
		pending := h.gate.Request(getUserID(c),
			fmt.Sprintf("Delete %q?", item.Text),
			func(ctx context.Context) error {
				_, err := h.service.DeleteItem(ctx, taskID, list, itemID)
				return err
			})
		h.accepted(c, pending)
	}
}
