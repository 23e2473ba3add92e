package router

import (
	"context"
	"net/http"
	"time"

	"characterai/backend/internal/api"
	"characterai/backend/internal/ws"
	"characterai/backend/pkg/config"
	"characterai/backend/pkg/di"
	"characterai/backend/pkg/errors"
	"characterai/backend/pkg/logger"
	"characterai/backend/pkg/middleware"
	"characterai/backend/pkg/validator"
	"characterai/backend/web"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// APIPrefix is the prefix of every JSON route
const APIPrefix = "/api/v1"

// Track server start time for uptime calculations
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Config      *config.Config
	WS          *ws.Handler
	RateLimiter *middleware.RateLimiter
}

// New creates a new router with the given container and installs the
// middleware chain. Routes are added by SetupRoutes.
func New(container *di.Container) (*Router, error) {
	cfg := container.Config
	logger.SetGlobal(container.Logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	engine.Use(middleware.MaxBodySize(cfg.Security.MaxBodySize))

	if container.Metrics != nil {
		engine.Use(container.Metrics.Middleware())
	}

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		WS:        ws.NewHandler(container.ChatService, container.Logger, cfg.Security.AllowedOrigins),
	}

	if cfg.Security.RateLimit > 0 {
		opts := middleware.DefaultRateLimiterOptions()
		opts.Limit = rate.Limit(cfg.Security.RateLimit)
		opts.Burst = cfg.Security.RateLimitBurst
		r.RateLimiter = middleware.NewRateLimiter(container.Logger, opts)
		engine.Use(r.RateLimiter.Middleware())
	}

	if cfg.OpenAPI.Validation {
		v, err := validator.New()
		if err != nil {
			return nil, err
		}
		engine.Use(v.Middleware())
		r.Logger.Info("OpenAPI validation enabled")
	}

	return r, nil
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() error {
	c := r.Container

	users := api.NewUserHandler(c.UserService)
	characters := api.NewCharacterHandler(c.CharacterService)
	conversations := api.NewConversationHandler(c.ConversationService)
	chat := api.NewChatHandler(c.ChatService)

	r.Engine.GET("/api", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "CharacterAI backend is running!"})
	})

	v1 := r.Engine.Group(APIPrefix)
	{
		v1.POST("/register", users.Register)

		characterRoutes := v1.Group("/characters")
		{
			characterRoutes.POST("", characters.Create)
			characterRoutes.GET("", characters.List)
			characterRoutes.GET("/:id", characters.Get)
			characterRoutes.PUT("/:id", characters.Update)
			characterRoutes.DELETE("/:id", characters.Delete)
		}

		conversationRoutes := v1.Group("/conversations")
		{
			conversationRoutes.POST("", conversations.Create)
			conversationRoutes.GET("", conversations.List)
			conversationRoutes.GET("/:id", conversations.Get)
			conversationRoutes.POST("/:id/messages", conversations.AppendMessage)
		}

		v1.POST("/chat", chat.Chat)
		v1.GET("/health", r.healthHandler())
	}

	r.Engine.GET("/health", r.healthHandler())
	r.Engine.GET("/api/docs/openapi.yaml", validator.ServeSchema)
	r.Engine.GET("/ws/chat", r.WS.ServeWS)

	if c.Metrics != nil {
		r.Engine.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}

	if err := web.Register(r.Engine, APIPrefix); err != nil {
		return err
	}

	r.Engine.NoRoute(func(ctx *gin.Context) {
		_ = ctx.Error(errors.NewNotFoundError(errors.CodeNotFound, api.MsgNotFound))
	})
	return nil
}

// Start runs the background loops (health probes, rate limiter sweeps)
// until ctx is done
func (r *Router) Start(ctx context.Context) {
	r.Container.Health.Start(ctx, 30*time.Second)
	if r.RateLimiter != nil {
		go r.RateLimiter.Run(ctx, 5*time.Minute)
	}
}

// healthHandler reports component health plus process details
func (r *Router) healthHandler() gin.HandlerFunc {
	checker := r.Container.Health
	return func(c *gin.Context) {
		checker.RunChecks(c.Request.Context())

		status := "ok"
		code := http.StatusOK
		if !checker.IsSystemHealthy() {
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":     status,
			"env":        r.Config.Server.Env,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": checker.GetStatus(),
			"websocket": gin.H{
				"active_connections": r.WS.ClientCount(),
			},
		})
	}
}
