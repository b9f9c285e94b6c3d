package server

import (
	"time"

	"omnipost/infrastructure/metrics"
	httpHandler "omnipost/interfaces/http"
	"omnipost/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health     httpHandler.IHealthHandler
	Platform   httpHandler.IPlatformHandler
	Connection httpHandler.IConnectionHandler
	Account    httpHandler.IAccountHandler
	Post       httpHandler.IPostHandler
}

type RouterConfig struct {
	SecretKey    string
	AllowOrigins []string
	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics
}

func InitiateRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", h.Health.Healthz)
	router.GET("/callback", h.Connection.Callback)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("api")
	api.Use(middleware.Auth(cfg.SecretKey))

	api.GET("/platforms", h.Platform.List)

	api.POST("/connections/:platform", h.Connection.Begin)
	api.POST("/connections/:platform/finish", h.Connection.Finish)

	api.GET("/accounts", h.Account.List)
	api.DELETE("/accounts", h.Account.Reset)
	api.DELETE("/accounts/:id", h.Account.Delete)

	posts := api.Group("/posts")
	{
		posts.GET("", h.Post.List)
		posts.POST("", h.Post.Create)
		posts.GET("/stream", h.Post.Stream)
		posts.GET("/:id", h.Post.Get)
		posts.POST("/:id/retry", h.Post.Retry)
	}

	return router
}
