package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplist-service/internal/adapters/kafka"
	"shoplist-service/internal/api/handlers"
	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/config"
	"shoplist-service/internal/database"
	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
	"shoplist-service/internal/services"
)

type Router struct {
	engine *gin.Engine

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	tenantHandler       *handlers.TenantHandler
	listHandler         *handlers.ListHandler
	itemHandler         *handlers.ItemHandler
	invitationHandler   *handlers.InvitationHandler
	chatHandler         *handlers.ChatHandler
	notificationHandler *handlers.NotificationHandler
	wsHandler           *handlers.WSHandler

	authMW      *middleware.AuthMiddleware
	rateLimitMW *middleware.RateLimitMiddleware

	db    *gorm.DB
	redis *database.RedisClient
}

// NewRouter wires repositories, services and handlers around the shared hub.
// The hub and the Kafka producer are constructed in main because their
// lifetimes span the HTTP server's.
func NewRouter(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *database.RedisClient,
	hub *realtime.Hub,
	activity *kafka.ActivityProducer,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	listRepo := postgres.NewListRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Services
	redisService := services.NewRedisService(redisClient)
	authService := services.NewAuthService(userRepo, redisService, hub,
		cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	userService := services.NewUserService(userRepo)
	tenantService := services.NewTenantService(tenantRepo)
	notificationService := services.NewNotificationService(notificationRepo, hub)
	listService := services.NewListService(listRepo, hub, notificationService, activity)
	itemService := services.NewItemService(itemRepo, listRepo, hub, activity)
	invitationService := services.NewInvitationService(invitationRepo, listRepo, userRepo,
		redisService, hub, notificationService)
	chatService := services.NewChatService(chatRepo, listRepo, userRepo, activity)
	membership := services.NewMembershipAdapter(listRepo)

	eventRouter := realtime.NewEventRouter(hub, membership, chatService, nil)

	return &Router{
		engine:              engine,
		authHandler:         handlers.NewAuthHandler(authService),
		userHandler:         handlers.NewUserHandler(userService),
		tenantHandler:       handlers.NewTenantHandler(tenantService),
		listHandler:         handlers.NewListHandler(listService),
		itemHandler:         handlers.NewItemHandler(itemService),
		invitationHandler:   handlers.NewInvitationHandler(invitationService),
		chatHandler:         handlers.NewChatHandler(chatService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		wsHandler:           handlers.NewWSHandler(hub, eventRouter, authService, membership),
		authMW:              middleware.NewAuthMiddleware(authService),
		rateLimitMW:         middleware.NewRateLimitMiddleware(redisService),
		db:                  db,
		redis:               redisClient,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.engine.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := r.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := r.redis.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	api := r.engine.Group("/api/v1")

	// Session endpoints authenticate inside the handshake, not via the
	// bearer middleware: browsers cannot set headers on a WebSocket dial.
	api.GET("/ws", r.wsHandler.Connect)
	api.GET("/ws/lists/:id/chat", r.wsHandler.ConnectListChat)

	// Public routes
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
		authRoutes.POST("/refresh", r.authHandler.Refresh)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		auth.POST("/auth/logout", r.authHandler.Logout)

		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/me", r.userHandler.GetMe)
			users.PUT("/me", r.userHandler.UpdateMe)
			users.GET("", r.authMW.RequireRole(models.RoleTenantAdmin, models.RoleSuperAdmin),
				r.userHandler.ListTenantUsers)
		}

		tenants := auth.Group("/tenants")
		tenants.Use(r.rateLimitMW.RateLimit(50, time.Minute))
		{
			tenants.POST("", r.authMW.RequireRole(models.RoleSuperAdmin), r.tenantHandler.Create)
			tenants.GET("", r.authMW.RequireRole(models.RoleSuperAdmin), r.tenantHandler.List)
			tenants.GET("/:id", r.tenantHandler.Get)
		}

		lists := auth.Group("/lists")
		lists.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			lists.GET("", r.listHandler.List)
			lists.POST("", r.listHandler.Create)
			lists.GET("/:id", r.listHandler.Get)
			lists.PUT("/:id", r.listHandler.Update)
			lists.DELETE("/:id", r.listHandler.Delete)
			lists.POST("/:id/leave", r.listHandler.Leave)

			lists.GET("/:id/members", r.listHandler.GetMembers)
			lists.DELETE("/:id/members/:userId", r.listHandler.RemoveMember)
			lists.PATCH("/:id/members/:userId/permissions", r.listHandler.UpdatePermissions)

			lists.GET("/:id/items", r.itemHandler.List)
			lists.POST("/:id/items", r.itemHandler.Create)
			lists.PUT("/:id/items/:itemId", r.itemHandler.Update)
			lists.DELETE("/:id/items/:itemId", r.itemHandler.Delete)

			lists.GET("/:id/invitations", r.invitationHandler.ListForList)
			lists.POST("/:id/invitations", r.invitationHandler.Create)

			lists.GET("/:id/chat/messages", r.chatHandler.History)
			lists.DELETE("/:id/chat/messages/:messageId", r.chatHandler.DeleteMessage)
		}

		invitations := auth.Group("/invitations")
		invitations.Use(r.rateLimitMW.RateLimit(50, time.Minute))
		{
			invitations.POST("/accept", r.invitationHandler.Accept)
			invitations.POST("/reject", r.invitationHandler.Reject)
			invitations.DELETE("/:id", r.invitationHandler.Cancel)
		}

		notifications := auth.Group("/notifications")
		notifications.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			notifications.GET("", r.notificationHandler.List)
			notifications.GET("/unread-count", r.notificationHandler.UnreadCount)
			notifications.POST("/:id/read", r.notificationHandler.MarkRead)
			notifications.POST("/read-all", r.notificationHandler.MarkAllRead)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
