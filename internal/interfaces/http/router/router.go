// Package router 提供 HTTP 路由配置
package router

import (
	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/interfaces/http/handler"
	"kaushal-ai-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由所需的全部处理器
type Handlers struct {
	Health      *handler.HealthHandler
	Message     *handler.MessageHandler
	Draft       *handler.DraftHandler
	Auth        *handler.AuthHandler
	Suggestions *handler.SuggestionsHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  gin.HandlerFunc
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers, limiter gin.HandlerFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	// 系统端点
	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	limiter := r.limiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	v1 := r.engine.Group("/v1")
	{
		// 对话入口
		v1.POST("/messages", limiter, h.Message.Handle)

		// 用户维度资源
		users := v1.Group("/users/:user_id")
		{
			users.GET("/drafts", h.Draft.List)
			users.GET("/status", h.Auth.Status)
			users.GET("/suggestions", limiter, h.Suggestions.Topics)
			users.GET("/linkedin/connect", h.Auth.Connect)
		}

		// 草稿直查
		v1.GET("/drafts/:id", h.Draft.Get)

		// OAuth 回调
		v1.GET("/auth/linkedin/callback", h.Auth.Callback)
	}
}
