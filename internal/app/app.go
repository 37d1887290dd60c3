package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "taskhub/docs"
	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/docstore"
	"taskhub/internal/handlers"
	"taskhub/internal/models"
	"taskhub/internal/realtime"
	"taskhub/internal/repositories"
	"taskhub/internal/routes"
	"taskhub/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	// === Store ===
	store, err := docstore.Open(ctx, docstore.Options{
		Driver:    cfg.Store.Driver,
		DSN:       cfg.Store.DSN,
		Namespace: cfg.Store.Namespace,
		Migrate:   cfg.Store.Migrate,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[app][store][close][err] %v", err)
		}
	}()

	// === Repos ===
	projectRepo := repositories.NewProjectRepository(store)
	taskRepo := repositories.NewTaskRepository(store)
	commentRepo := repositories.NewCommentRepository(store)
	chatRepo := repositories.NewChatRepository(store)
	cascadeRepo := repositories.NewCascadeRepository(store)

	// === Services ===
	provider := auth.NewJWTProvider(cfg.Auth.SessionSecret, cfg.Auth.CustomTokenSecret, cfg.Auth.SessionTTL)
	sessionService := services.NewSessionService(provider, cfg.Auth.RetryAttempts, cfg.Auth.RetryBaseDelay)
	gate := services.NewConfirmationGate(cfg.Confirm.TTL)
	notices := services.NewNoticeBoard()

	projectService := services.NewProjectService(projectRepo, cascadeRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, cascadeRepo)
	commentService := services.NewCommentService(commentRepo, taskRepo)
	chatService := services.NewChatService(chatRepo, projectRepo)

	var tg handlers.AssignmentNotifier
	if cfg.Telegram.BotToken != "" {
		notifier, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs)
		if err != nil {
			log.Printf("[app][telegram][err] notifications disabled: %v", err)
		} else {
			tg = notifier
		}
	}

	// === Realtime ===
	hub := newHub(cfg.Server.AllowedOrigins, projectService, taskService, commentService, chatService)
	unsubscribe := notices.OnChange(hub.PushNotice)
	defer unsubscribe()

	// === Handlers ===
	h := routes.Handlers{
		Session:      handlers.NewSessionHandler(sessionService, notices),
		Confirmation: handlers.NewConfirmationHandler(gate, notices),
		Project:      handlers.NewProjectHandler(projectService, gate, notices),
		Task:         handlers.NewTaskHandler(taskService, gate, notices, tg),
		Comment:      handlers.NewCommentHandler(commentService, gate, notices),
		Chat:         handlers.NewChatHandler(chatService, notices),
		WS:           handlers.NewWSHandler(hub),
	}

	// === Gin ===
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes.SetupRoutes(router, sessionService, h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// === Run ===
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if feed, ok := store.(docstore.ChangeFeed); ok {
		g.Go(func() error {
			return feed.Listen(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("[app] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newHub(
	origins []string,
	projects services.ProjectService,
	tasks services.TaskService,
	comments services.CommentService,
	chat services.ChatService,
) *realtime.Hub {
	hub := realtime.NewHub(origins)
	hub.Handle(realtime.TopicProjects, func(ctx context.Context, userID, _ string) (realtime.Source, error) {
		feed, err := projects.Subscribe(ctx, userID)
		if err != nil {
			return nil, err
		}
		return realtime.FromFeed[models.Project](feed), nil
	})
	hub.Handle(realtime.TopicProjectTasks, func(ctx context.Context, _, projectID string) (realtime.Source, error) {
		feed, err := tasks.SubscribeByProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return realtime.FromFeed[models.Task](feed), nil
	})
	hub.Handle(realtime.TopicMyTasks, func(ctx context.Context, userID, _ string) (realtime.Source, error) {
		feed, err := tasks.SubscribeByAssignee(ctx, userID)
		if err != nil {
			return nil, err
		}
		return realtime.FromFeed[models.Task](feed), nil
	})
	hub.Handle(realtime.TopicComments, func(ctx context.Context, _, taskID string) (realtime.Source, error) {
		feed, err := comments.Subscribe(ctx, taskID)
		if err != nil {
			return nil, err
		}
		return realtime.FromFeed[models.Comment](feed), nil
	})
	hub.Handle(realtime.TopicChat, func(ctx context.Context, _, projectID string) (realtime.Source, error) {
		feed, err := chat.Subscribe(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return realtime.FromFeed[models.ChatMessage](feed), nil
	})
	return hub
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}
