package routes

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
)

type Handlers struct {
	Session      *handlers.SessionHandler
	Confirmation *handlers.ConfirmationHandler
	Project      *handlers.ProjectHandler
	Task         *handlers.TaskHandler
	Comment      *handlers.CommentHandler
	Chat         *handlers.ChatHandler
	WS           *handlers.WSHandler
}

func SetupRoutes(r *gin.Engine, sessions middleware.SessionResolver, h Handlers) *gin.Engine {
	// ---- public
	r.GET("/healthz", handlers.Healthz)
	r.POST("/session", h.Session.Establish)
	r.GET("/session", h.Session.Get)

	// ---- protected
	r.Use(middleware.AuthMiddleware(sessions))

	session := r.Group("/session")
	{
		session.GET("/notice", h.Session.GetNotice)
		session.DELETE("/notice", h.Session.DismissNotice)
	}

	confirmations := r.Group("/confirmations")
	{
		confirmations.GET("", h.Confirmation.Current)
		confirmations.POST("/:id", h.Confirmation.Confirm)
		confirmations.DELETE("/:id", h.Confirmation.Cancel)
	}

	// PROJECTS
	projects := r.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.POST("", h.Project.Create)
		projects.GET("/:id", h.Project.Get)
		projects.PUT("/:id", h.Project.Update)
		projects.DELETE("/:id", h.Project.Delete)
		projects.POST("/:id/members", h.Project.AddMember)
		projects.DELETE("/:id/members/:uid", h.Project.RemoveMember)

		projects.GET("/:id/tasks", h.Task.ListByProject)
		projects.POST("/:id/tasks", h.Task.Create)

		projects.GET("/:id/messages", h.Chat.ListMessages)
		projects.POST("/:id/messages", h.Chat.SendMessage)
	}

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.GET("/mine", h.Task.Mine)
		tasks.GET("/:id", h.Task.GetByID)
		tasks.PUT("/:id", h.Task.Update)
		tasks.PATCH("/:id/status", h.Task.UpdateStatus)
		tasks.DELETE("/:id", h.Task.Delete)

		tasks.POST("/:id/subtasks", h.Task.AddItem(models.Subtasks))
		tasks.POST("/:id/subtasks/:sid/toggle", h.Task.ToggleItem(models.Subtasks, "sid"))
		tasks.DELETE("/:id/subtasks/:sid", h.Task.DeleteItem(models.Subtasks, "sid"))

		tasks.POST("/:id/checklists", h.Task.AddItem(models.Checklists))
		tasks.POST("/:id/checklists/:cid/toggle", h.Task.ToggleItem(models.Checklists, "cid"))
		tasks.DELETE("/:id/checklists/:cid", h.Task.DeleteItem(models.Checklists, "cid"))

		tasks.GET("/:id/comments", h.Comment.List)
		tasks.POST("/:id/comments", h.Comment.Add)
	}

	r.DELETE("/comments/:id", h.Comment.Delete)

	// live subscriptions
	r.GET("/ws", h.WS.Serve)

	return r
}
