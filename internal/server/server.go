// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "memoria/docs" // swagger docs
	"memoria/internal/badge"
	"memoria/internal/config"
	"memoria/internal/featureflags"
	"memoria/internal/middleware"
	"memoria/internal/models"
	"memoria/internal/notifications"
	"memoria/internal/repository"
	"memoria/internal/service"
	"memoria/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultBodyLimit = 12 * 1024 * 1024

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Storage
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.GroupHub
	featureFlags   *featureflags.Manager
	badges         *badge.Engine
	groupService   *service.GroupService
	postService    *service.PostService
	commentService *service.CommentService
	imageService   *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The bootstrap layer establishes DB and Redis and seeds the badge catalog;
// redisClient may be nil, in which case caching and cross-instance fan-out are off.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("badge timezone: %w", err)
	}

	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("memoria-api"),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewGroupHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	s.badges = badge.NewEngine(badge.Config{
		Stats:     repository.NewBadgeStatsRepository(db),
		Grants:    repository.NewBadgeRepository(db),
		Publisher: notifications.NewBadgePublisher(s.notifier, s.hub, s.featureFlags),
		Location:  loc,
	})

	s.groupService = service.NewGroupService(groupRepo, s.badges)
	s.postService = service.NewPostService(postRepo, groupRepo, s.badges)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	if store != nil {
		s.imageService = service.NewImageService(store, cfg)
	}
	return s, nil
}

// Badges exposes the badge engine so the caller can run the periodic sweep.
func (s *Server) Badges() *badge.Engine { return s.badges }

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Memoria API",
		BodyLimit: defaultBodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagate request and trace IDs into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// Write quotas layered under the global limiter.
var (
	postQuota    = middleware.Quota{Name: "create_post", Limit: 30, Window: time.Minute, PerResource: true}
	commentQuota = middleware.Quota{Name: "create_comment", Limit: 30, Window: time.Minute, PerResource: true}
	uploadQuota  = middleware.Quota{Name: "upload_image", Limit: 20, Window: time.Minute}
)

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Memoria Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/feature-flags", s.GetFeatureFlags)

	groups := api.Group("/groups")
	groups.Post("/", s.CreateGroup)
	groups.Get("/", s.ListGroups)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	groups.Post("/:id/verify-password", s.VerifyGroupPassword)
	groups.Post("/:id/like", s.LikeGroup)
	groups.Get("/:id/is-public", s.GetGroupVisibility)
	groups.Post("/:id/posts", middleware.RateLimit(s.redis, postQuota), s.CreatePost)
	groups.Get("/:id/posts", s.ListPosts)
	groups.Get("/:id/badges/ws", s.BadgeFeedUpgrade, s.BadgeFeedHandler())
	groups.Get("/:id", s.GetGroup)
	groups.Put("/:id", s.UpdateGroup)
	groups.Delete("/:id", s.DeleteGroup)

	posts := api.Group("/posts")
	posts.Post("/:id/verify-password", s.VerifyPostPassword)
	posts.Post("/:id/like", s.LikePost)
	posts.Get("/:id/is-public", s.GetPostVisibility)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, commentQuota), s.CreateComment)
	posts.Get("/:id/comments", s.ListComments)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := api.Group("/comments")
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	api.Post("/image", middleware.RateLimit(s.redis, uploadQuota), s.UploadImage)
	// Local uploads are served by this process unless the base URL points elsewhere.
	if local, ok := s.store.(*storage.LocalStorage); ok {
		prefix := s.config.ImageBaseURL
		if prefix == "" {
			prefix = "/images"
		}
		if strings.HasPrefix(prefix, "/") {
			app.Static(prefix, local.BasePath(), fiber.Static{
				MaxAge: 31536000,
			})
		}
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; only a configured but unreachable Redis fails readiness.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start wires the badge hub to Redis and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start badge hub wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the Redis subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Close websocket clients first so the HTTP server is not held open by them
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down badge hub", slog.String("error", err.Error()))
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
