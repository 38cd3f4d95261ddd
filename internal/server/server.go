// Package server contains the HTTP handlers for the editorial API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"editorial/internal/cache"
	"editorial/internal/config"
	"editorial/internal/database"
	"editorial/internal/featureflags"
	"editorial/internal/middleware"
	"editorial/internal/notifications"
	"editorial/internal/repository"
	"editorial/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const adminTokenTTL = 12 * time.Hour

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	userRepo       repository.UserRepository
	postService    *service.PostService
	topicService   *service.TopicService
	asideService   *service.AsideService
	commentService *service.CommentService
	contestService *service.ContestService
	userService    *service.UserService
	media          *service.MediaStore
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching and rate limiting.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient(), time.Now)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// now is the clock used when posts are published.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, now func() time.Time) (*Server, error) {
	if now == nil {
		now = time.Now
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db, repository.DefaultAuthorSource())
	topicRepo := repository.NewTopicRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	contestRepo := repository.NewContestRepository(db)
	media := service.NewMediaStore(cfg.UploadDir)
	events := notifications.NewNotifier(redisClient)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("editorial-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
		postService:    service.NewPostService(postRepo, commentRepo, now),
		topicService:   service.NewTopicService(topicRepo),
		asideService:   service.NewAsideService(topicRepo, postRepo),
		commentService: service.NewCommentService(postRepo, commentRepo, events),
		contestService: service.NewContestService(contestRepo, media, cfg.UploadMaxMB, events),
		userService:    service.NewUserService(userRepo, cfg.JWTSecret, adminTokenTTL),
		media:          media,
	}, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Editorial API",
		BodyLimit: (s.config.UploadMaxMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return s.respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		middleware.RegisterMetrics(app, s.promMiddleware)
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	app.Static("/media", s.media.Root(), fiber.Static{Browse: false})

	api := app.Group("/api")
	api.Get("/", s.Home)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/:id<int>", s.GetPost)
	posts.Get("/:year/:month/:day/:slug", s.GetPostByDate)
	posts.Post("/:id<int>/comments",
		s.FeatureRequired(featureflags.Comments),
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "comment"),
		s.SubmitComment)

	topics := api.Group("/topics")
	topics.Get("/", s.ListTopics)
	topics.Get("/slug/:slug", s.GetTopicBySlug)
	topics.Get("/:id<int>", s.GetTopic)

	contest := api.Group("/contest", s.FeatureRequired(featureflags.Contest))
	contest.Get("/", s.ContestForm)
	contest.Post("/", middleware.RateLimit(s.redis, 3, 10*time.Minute, "contest"), s.SubmitContest)

	api.Post("/auth/token", middleware.RateLimitWithPolicy(
		s.redis, 10, 5*time.Minute, middleware.FailClosed, "admin_login"), s.IssueToken)

	admin := api.Group("/admin", middleware.AdminRequired(s.config.JWTSecret), s.staffStillActive)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	adminTopics := admin.Group("/topics")
	adminTopics.Get("/", s.AdminListTopics)
	adminTopics.Post("/", s.AdminCreateTopic)
	adminTopics.Put("/:id<int>", s.AdminUpdateTopic)

	adminPosts := admin.Group("/posts")
	adminPosts.Get("/", s.AdminListPosts)
	adminPosts.Post("/", s.AdminCreatePost)
	// Specific /:id/:action routes before the generic /:id routes
	adminPosts.Post("/:id<int>/publish", s.AdminPublishPost)
	adminPosts.Delete("/:id<int>/purge", s.AdminHardDeletePost)
	adminPosts.Get("/:id<int>", s.AdminGetPost)
	adminPosts.Put("/:id<int>", s.AdminUpdatePost)
	adminPosts.Delete("/:id<int>", s.AdminSoftDeletePost)

	adminComments := admin.Group("/comments")
	adminComments.Get("/", s.AdminListComments)
	adminComments.Post("/:id<int>/approve", s.AdminApproveComment)
	adminComments.Post("/:id<int>/unapprove", s.AdminUnapproveComment)

	admin.Get("/contest", s.AdminListContest)

	adminUsers := admin.Group("/users")
	adminUsers.Get("/", s.AdminListUsers)
	adminUsers.Delete("/:id<int>", s.AdminDeleteUser)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional, so only
// the database decides readiness.
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

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
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

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
