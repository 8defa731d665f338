package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/DEVector-it/mythai.github.io/internal/app"
	"github.com/DEVector-it/mythai.github.io/internal/bootstrap"
	"github.com/DEVector-it/mythai.github.io/internal/cache"
	rabbitmqClient "github.com/DEVector-it/mythai.github.io/internal/platform/rabbitmq"
	"github.com/DEVector-it/mythai.github.io/internal/quota"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/handler"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.Database)
	chatRepo := repository.NewChatRepository(app.Database)
	messageRepo := repository.NewMessageRepository(app.Database)
	settingRepo := repository.NewSettingRepository(app.Database)

	ledger := quota.NewLedger(userRepo, nil)

	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		historyCache = cache.NewHistoryCache(
			app.Redis,
			time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}
	var journal appsvc.TurnJournal
	if app.MQConn != nil {
		journal = rabbitmqClient.NewTurnJournalPublisher(app.MQConn, app.Config.RabbitMQ.TurnJournalQueue)
	}

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
		app.Config.Plans.Default,
	)
	chatService := appsvc.NewChatService(chatRepo, messageRepo, historyCache)
	accountService := appsvc.NewAccountService(userRepo, settingRepo, app.Plans, ledger, app.Config.Plans.Upgrade)
	adminService := appsvc.NewAdminService(userRepo, chatRepo, messageRepo, settingRepo, app.Plans, historyCache)
	turnService := appsvc.NewTurnService(appsvc.TurnConfig{
		Users:        userRepo,
		Chats:        chatRepo,
		Messages:     messageRepo,
		Plans:        app.Plans,
		Ledger:       ledger,
		Sessions:     app.Sessions,
		Provider:     app.Provider,
		Journal:      journal,
		Cache:        historyCache,
		Logger:       app.Logger,
		MaxContext:   app.Config.LLM.MaxContextMessage,
		TurnTimeout:  time.Duration(app.Config.LLM.RequestTimeoutSeconds) * time.Second,
		SystemPrompt: app.Config.LLM.SystemPrompt,
	})

	// Cookie lifetime tracks the token lifetime so a held cookie never
	// outlives the JWT inside it.
	cookieMaxAge := app.Config.Auth.JWTExpireMinute * 60
	authHandler := handler.NewAuthHandler(authService, cookieMaxAge)
	chatHandler := handler.NewChatHandler(chatService)
	accountHandler := handler.NewAccountHandler(accountService)
	adminHandler := handler.NewAdminHandler(adminService)
	turnHandler := handler.NewTurnHandler(turnService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.GET("/status", accountHandler.Status)
	authed.POST("/user/upgrade", accountHandler.Upgrade)
	authed.POST("/chats", chatHandler.CreateChat)
	authed.GET("/chats", chatHandler.ListChats)
	authed.PUT("/chats/:id", chatHandler.RenameChat)
	authed.DELETE("/chats/:id", chatHandler.DeleteChat)
	authed.GET("/chats/:id/messages", chatHandler.GetHistory)
	authed.POST("/chats/:id/stream", turnHandler.StreamTurn)
	authed.POST("/chats/:id/cancel", turnHandler.CancelTurn)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret), middleware.RequireAdmin())
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.PUT("/users/:id/plan", adminHandler.SetUserPlan)
	adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
	adminGroup.PUT("/announcement", adminHandler.SetAnnouncement)

	return router
}
