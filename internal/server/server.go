package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"kolboard/internal/cache"
	"kolboard/internal/config"
	"kolboard/internal/database"
	"kolboard/internal/featureflags"
	"kolboard/internal/middleware"
	"kolboard/internal/models"
	"kolboard/internal/notifications"
	"kolboard/internal/repository"
	"kolboard/internal/service"
	"kolboard/internal/storage"
	"kolboard/internal/upstream"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Upstream *upstream.Client
	Storage  service.ObjectStorage
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	streams        context.Context
	stopStreams    context.CancelFunc

	userService         *service.UserService
	avatarService       *service.AvatarService
	followService       *service.FollowService
	notificationService *service.NotificationService
	stockService        *service.StockService
	trackingService     *service.TrackingService
	kolService          *service.KOLService
	portfolioService    *service.PortfolioService
	leaderboardService  *service.LeaderboardService
}

// NewServer connects the database, Redis, object storage and the upstream client
// and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	replica, err := database.ConnectRead(cfg, db)
	if err != nil {
		return nil, err
	}
	if replica != db {
		database.SetReadDB(replica)
	}

	// Redis is optional; a nil client disables caching and rate limits fail open.
	cache.InitRedis(cfg.RedisURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.NewObjectStore(ctx, storage.Config{
		Endpoint:     cfg.StorageEndpoint,
		Region:       cfg.StorageRegion,
		Bucket:       cfg.StorageBucket,
		AccessKey:    cfg.StorageAccessKey,
		SecretKey:    cfg.StorageSecretKey,
		PublicURL:    cfg.StoragePublicURL,
		UsePathStyle: cfg.StoragePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init failed: %w", err)
	}
	if !cfg.IsProduction() {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("Storage warning: %v (avatar uploads will fail)", err)
		}
	}

	return NewServerWithDeps(cfg, Deps{
		DB:    db,
		Redis: cache.GetClient(),
		Upstream: upstream.New(upstream.Config{
			BaseURL: cfg.UpstreamBaseURL(),
			Timeout: cfg.UpstreamTimeout,
			RPS:     cfg.UpstreamRPS,
			Burst:   cfg.UpstreamBurst,
		}),
		Storage: store,
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Upstream == nil {
		return nil, errors.New("upstream client is required")
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(deps.DB)
	followRepo := repository.NewFollowRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)
	kolRepo := repository.NewKOLSubscriptionRepository(deps.DB)
	stockRepo := repository.NewTrackedStockRepository(deps.DB)
	portfolioRepo := repository.NewPortfolioRepository(deps.DB)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("kolboard-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(deps.Redis),
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())

	s.userService = service.NewUserService(userRepo, portfolioRepo, cfg.ProfileCardCacheTTL)
	if deps.Storage != nil {
		s.avatarService = service.NewAvatarService(deps.Storage, userRepo, cfg)
	}
	s.notificationService = service.NewNotificationService(notificationRepo).WithNotifier(s.notifier)
	s.followService = service.NewFollowService(followRepo, userRepo, s.notificationService)
	s.stockService = service.NewStockService(deps.Upstream, stockRepo, cfg.QuoteCacheTTL)
	s.trackingService = service.NewTrackingService(kolRepo, stockRepo, userRepo, s.stockService, cfg.UpstreamFanoutLimit)
	s.kolService = service.NewKOLService(deps.Upstream, s.stockService, kolRepo, cfg.UpstreamFanoutLimit)
	s.portfolioService = service.NewPortfolioService(portfolioRepo, userRepo, deps.Upstream)
	s.leaderboardService = service.NewLeaderboardService(userRepo, portfolioRepo, s.portfolioService)

	return s, nil
}

// Stocks exposes the quote service to the scheduler.
func (s *Server) Stocks() *service.StockService {
	return s.stockService
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
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
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	api.Get("/health/live", s.LivenessCheck)
	api.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if !s.config.IsProduction() {
		api.Get("/metrics/dashboard", monitor.New(monitor.Config{
			Title: "kolboard API Metrics",
		}))
	}

	// Public routes; a valid token personalizes the response.
	public := api.Group("", middleware.OptionalAuth)
	public.Get("/kols", s.ListKOLs)
	public.Get("/kol", s.GetKOL)
	public.Get("/kol/analysis", s.GetKOLAnalysis)
	public.Get("/trending-stocks", s.GetTrendingStocks)

	stocks := public.Group("/stocks/:symbol")
	stocks.Get("/quote", s.GetStockQuote)
	stocks.Get("/chart", s.GetStockChart)
	stocks.Get("/discussions", s.GetStockDiscussions)
	stocks.Get("/news", s.GetStockNews)

	public.Get("/leaderboard", s.requireFeature(featureflags.Leaderboard), s.GetLeaderboard)

	// Public user routes must be registered before the protected group middleware.
	publicUsers := public.Group("/users")
	publicUsers.Get("/:id/card", s.GetProfileCard)
	publicUsers.Get("/:id/holdings", s.GetPublicHoldings)
	publicUsers.Get("/:id/follow-status", s.GetFollowStatus)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired, s.EnsureUser())

	users := protected.Group("/users")
	// Define /me routes BEFORE generic /:id routes
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMySettings)
	users.Get("/me/features", s.GetFeatureFlags)
	users.Post("/me/avatar", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "avatar_upload"), s.UploadAvatar)
	users.Post("/:id/follow", middleware.RateLimit(
		s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)

	trackedKOLs := protected.Group("/tracked-kols")
	trackedKOLs.Get("/", s.ListTrackedKOLs)
	trackedKOLs.Post("/", middleware.RateLimit(
		s.redis, 60, time.Minute, "track_kol"), s.TrackKOL)
	trackedKOLs.Patch("/:platform/:kolId", s.UpdateTrackedKOL)
	trackedKOLs.Delete("/:platform/:kolId", s.UntrackKOL)

	trackedStocks := protected.Group("/tracked-stocks")
	trackedStocks.Get("/", s.ListTrackedStocks)
	trackedStocks.Post("/", middleware.RateLimit(
		s.redis, 60, time.Minute, "track_stock"), s.TrackStock)
	trackedStocks.Patch("/:symbol", s.UpdateTrackedStock)
	trackedStocks.Delete("/:symbol", s.UntrackStock)

	inbox := protected.Group("/notifications")
	inbox.Get("/", s.ListNotifications)
	// Specific routes before generic /:id
	inbox.Get("/unread-count", s.GetUnreadCount)
	inbox.Get("/stream", s.requireFeature(featureflags.NotificationStream), s.StreamNotifications)
	inbox.Post("/read-all", s.MarkAllNotificationsRead)
	inbox.Patch("/:id/read", s.MarkNotificationRead)
	inbox.Delete("/:id", s.DeleteNotification)

	portfolio := protected.Group("/portfolio")
	portfolio.Get("/status", s.GetPortfolioStatus)
	portfolio.Post("/register", middleware.RateLimitWithPolicy(
		s.redis, 5, 10*time.Minute, middleware.FailClosed, "snaptrade_register"), s.RegisterPortfolio)
	portfolio.Post("/sync", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "snaptrade_sync"), s.SyncPortfolio)
	portfolio.Get("/holdings", s.GetMyHoldings)
	portfolio.Put("/public", s.SetPortfolioPublic)
	portfolio.Get("/privacy", s.GetPortfolioPrivacy)
	portfolio.Put("/privacy", s.UpdatePortfolioPrivacy)
	portfolio.Put("/positions/:id/visibility", s.SetPositionVisibility)
}

// EnsureUser provisions the local profile row for the authenticated account.
// Must be placed after AuthRequired so the identity is available in locals.
func (s *Server) EnsureUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    "Authorization required",
				"code":     models.CodeAuthRequired,
				"redirect": middleware.AuthRedirect,
			})
		}
		username, _ := c.Locals(middleware.LocalUsername).(string)
		email, _ := c.Locals(middleware.LocalEmail).(string)

		if _, err := s.userService.EnsureUser(c.UserContext(), service.Identity{
			UserID:   userID,
			Username: username,
			Email:    email,
		}); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
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
		"time": time.Now(),
	})
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "kolboard API",
		BodyLimit: 4 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, errors.New(fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopStreams()

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
