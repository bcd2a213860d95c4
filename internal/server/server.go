package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/auth"
	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/handlers"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/services"
	"github.com/emilythestrangee/stackit/backend/internal/store"
)

// HealthFunc reports backend health for the /health endpoint.
type HealthFunc func(ctx context.Context) map[string]string

type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	tokens  *auth.TokenIssuer
	handler *handlers.Handler
	limiter *middleware.RateLimiter
	health  HealthFunc
}

// New wires the services over st and builds the route handlers.
// health may be nil, in which case the store is pinged.
func New(cfg *config.Config, logger *zap.Logger, st store.Store, health HealthFunc) *Server {
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svc := services.New(st, services.Options{
		Paging: services.Paging{
			DefaultPageSize: cfg.Pagination.DefaultPageSize,
			MaxPageSize:     cfg.Pagination.MaxPageSize,
		},
		Tokens: tokens,
		Logger: logger,
	})

	if health == nil {
		health = pingHealth(st)
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		tokens:  tokens,
		handler: handlers.NewHandler(svc, logger),
		limiter: middleware.NewRateLimiter(cfg.RateLimit),
		health:  health,
	}
}

// HTTPServer wraps the router in an *http.Server using the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(s.logger), middleware.RequestLogger(s.logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if allowsAnyOrigin(s.cfg.Server.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Authenticate(s.tokens))
	{
		// Auth routes (public)
		api.POST("/auth/signup", s.limiter.Middleware(), s.handler.Auth.SignUp)
		api.POST("/auth/signin", s.limiter.Middleware(), s.handler.Auth.SignIn)

		// Question routes (public reads)
		api.GET("/questions", s.handler.Question.ListQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.GET("/tags", s.handler.Question.ListTags)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/notifications", s.handler.Notification.ListNotifications)
			protected.GET("/notifications/unread-count", s.handler.Notification.UnreadCount)

			writes := protected.Group("")
			writes.Use(s.limiter.Middleware())
			{
				writes.PUT("/me", s.handler.Auth.UpdateMe)

				writes.POST("/questions", s.handler.Question.CreateQuestion)
				writes.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
				writes.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)

				writes.POST("/questions/:id/answers", s.handler.Answer.CreateAnswer)
				writes.PUT("/answers/:id", s.handler.Answer.UpdateAnswer)
				writes.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)
				writes.POST("/answers/:id/accept", s.handler.Answer.AcceptAnswer)
				writes.DELETE("/answers/:id/accept", s.handler.Answer.UnacceptAnswer)

				writes.POST("/votes", s.handler.Vote.CastVote)

				writes.POST("/notifications/:id/read", s.handler.Notification.MarkRead)
				writes.POST("/notifications/read-all", s.handler.Notification.MarkAllRead)
			}
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func pingHealth(st store.Store) HealthFunc {
	return func(ctx context.Context) map[string]string {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			return map[string]string{"status": "down", "error": err.Error()}
		}
		return map[string]string{"status": "up"}
	}
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
