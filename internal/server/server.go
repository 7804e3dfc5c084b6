// Package server wires dependencies together and serves the HTTP API.
package server

import (
	"context"
	"strings"
	"time"

	"banana/internal/auth"
	"banana/internal/cache"
	"banana/internal/config"
	"banana/internal/database"
	"banana/internal/middleware"
	"banana/internal/models"
	"banana/internal/observability"
	"banana/internal/repository"
	"banana/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	providers   map[string]auth.Provider
	tokens      *auth.TokenIssuer
	states      auth.StateStore
	images      *storage.ImageStore
	cache       *cache.Cache
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	redisClient := cache.NewClient(cfg.RedisURL)

	images, err := storage.NewImageStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxSizeMB)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		providers:   buildProviders(cfg),
		tokens:      auth.NewTokenIssuer(cfg.JWTSecret),
		states:      auth.NewStateStore(redisClient),
		images:      images,
		cache:       cache.New(redisClient),
	}

	if len(server.providers) == 0 {
		observability.GlobalLogger.Warn("no OAuth provider fully configured; login routes will 404")
	}

	return server, nil
}

// buildProviders constructs a client for every provider whose credential
// triple is complete.
func buildProviders(cfg *config.Config) map[string]auth.Provider {
	providers := make(map[string]auth.Provider)
	for _, name := range cfg.EnabledProviders() {
		creds := cfg.ProviderCredentialsFor(name)
		switch name {
		case models.ProviderKakao:
			providers[name] = auth.NewKakaoProvider(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
		case models.ProviderGoogle:
			providers[name] = auth.NewGoogleProvider(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
		case models.ProviderNaver:
			providers[name] = auth.NewNaverProvider(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
		}
	}
	return providers
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.Tracing())
	}

	// Prometheus metrics
	prom := fiberprometheus.New("banana")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	// Live metrics dashboard
	app.Get("/monitor", monitor.New())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/healthz", s.HealthCheck)

	// Uploaded post images
	app.Static(s.config.UploadBaseURL, s.images.Dir())

	// OAuth login flow
	app.Get("/login/:provider", middleware.RateLimit(s.redis, 10, time.Minute, "oauth_login"), s.LoginRedirect)
	app.Get("/login/:provider/callback", s.OAuthCallback)
	app.Get("/logout", s.Logout)
	app.Get("/auth/me", s.AuthRequired(), s.GetCurrentUser)

	// Posts
	app.Post("/post", s.AuthRequired(), middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	app.Get("/posts", s.GetPosts)
	app.Get("/post/:id", s.GetPost)
	app.Delete("/post/:id", s.AuthRequired(), s.DeletePost)

	// Comments
	app.Post("/post/:id/comment", s.AuthRequired(), middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	app.Get("/post/:id/comments", s.GetComments)
	app.Delete("/comment/:id", s.AuthRequired(), s.DeleteComment)
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The credential is read
// from the Authorization header, falling back to the access_token cookie set
// by the login callback.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			tokenString = c.Cookies(auth.SessionCookieName)
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("로그인이 필요합니다."))
		}

		userID, err := s.tokens.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("토큰 검증 실패"))
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// Shutdown gracefully releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", "error", rerr.Error())
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "server shutdown complete")
	return nil
}
