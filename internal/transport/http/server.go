package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "agentboard/internal/app"
	"agentboard/internal/bootstrap"
	"agentboard/internal/cache"
	"agentboard/internal/metrics"
	"agentboard/internal/platform/rabbitmq"
	"agentboard/internal/repository"
	"agentboard/internal/transport/http/handler"
	"agentboard/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.Metrics(app.Metrics))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler(app.Registry)))

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	projectRepo := repository.NewProjectRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	usageService := appsvc.NewUsageService(
		cache.NewUsageCounter(app.Redis),
		appsvc.QuotaPolicy{
			FreeDaily:       app.Config.Quota.FreeDailyMessages,
			ProDaily:        app.Config.Quota.ProDailyMessages,
			EnterpriseDaily: app.Config.Quota.EnterpriseDailyMessages,
		},
	)
	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		userRepo,
		publisher,
		historyCache,
		usageService,
		app.AgentClient,
		app.Config.Agent.FallbackMessage,
		app.Metrics,
	)
	projectService := appsvc.NewProjectService(
		projectRepo,
		sessionRepo,
		app.Config.Storage.ArtifactDir,
		app.Config.Storage.DownloadSecret,
		time.Duration(app.Config.Storage.DownloadTTLMinutes)*time.Minute,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	projectHandler := handler.NewProjectHandler(projectService)

	authMW := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	rateLimiter := middleware.NewRateLimiter(app.Config.RateLimit.RequestsPerMinute, app.Config.RateLimit.Burst)
	app.RegisterCloser(rateLimiter.Stop)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authMW, authHandler.Me)
	authGroup.PUT("/me", authMW, authHandler.UpdateMe)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(authMW, rateLimiter.Middleware())
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.GET("/sessions/:id", chatHandler.GetSession)
	chatGroup.PATCH("/sessions/:id", chatHandler.UpdateSession)
	chatGroup.DELETE("/sessions/:id", chatHandler.DeleteSession)
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.POST("/messages/stream", chatHandler.StreamMessage)
	chatGroup.GET("/history", chatHandler.GetHistory)
	chatGroup.GET("/usage", chatHandler.GetUsage)

	projectGroup := v1.Group("/projects")
	projectGroup.GET("/download", projectHandler.Download)
	projectGroup.Use(authMW, rateLimiter.Middleware())
	projectGroup.POST("", projectHandler.Create)
	projectGroup.GET("", projectHandler.List)
	projectGroup.GET("/:id", projectHandler.Get)
	projectGroup.DELETE("/:id", projectHandler.Delete)
	projectGroup.GET("/:id/download-url", projectHandler.DownloadURL)

	return router
}
