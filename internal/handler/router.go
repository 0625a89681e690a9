package handler

import (
	"net/http"

	"lounge/backend/internal/auth"
	"lounge/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires every route. A nil limiter disables per-IP rate limiting.
func NewRouter(h *Handler, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	if limiter != nil {
		apiV1.Use(limiter.Middleware())
	}
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.RegisterUser)
			authRoutes.POST("/login", h.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", h.SearchUsers)
			userRoutes.GET("/me", h.GetMe)
		}

		// Friend routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.POST("/send-request", h.SendFriendRequest)
			friendRoutes.POST("/respond-request", h.RespondFriendRequest)
			friendRoutes.POST("/withdraw-request", h.WithdrawFriendRequest)
			friendRoutes.POST("/remove-friend", h.RemoveFriend)
			friendRoutes.GET("/friends-list", h.GetFriends)
			friendRoutes.GET("/requests/sent", h.GetSentRequests)
			friendRoutes.GET("/requests/received", h.GetReceivedRequests)
			friendRoutes.GET("/invite-code", h.GetInviteCode)
			friendRoutes.POST("/generate-invite-code", h.GenerateInviteCode)
		}

		// Chat routes (protected)
		chatRoutes := apiV1.Group("/chat")
		chatRoutes.Use(auth.AuthMiddleware())
		{
			chatRoutes.POST("/send", h.SendMessage)
			chatRoutes.GET("/conversation/:idA/:idB", h.GetConversation)
			chatRoutes.GET("/ws", h.ServeChatWS)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware(h.users))
		{
			adminRoutes.POST("/relations/:id/reconcile", h.ReconcileRelations)
		}
	}

	return router
}
