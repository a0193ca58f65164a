package server

import (
	"github.com/gin-gonic/gin"

	"github.com/arvijixmeat-maker/MILKYWAY-JAPAN-sub000/internal/handlers"
)

func APIEndpoints(r *gin.Engine, authH *handlers.AuthHandler, userH *handlers.UserHandler, convH *handlers.ConversationHandler, wsH *handlers.WebSocketHandler, authMW, wsAuthMW gin.HandlerFunc) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/users/me", userH.GetMe)
		api.GET("/users/search", userH.SearchUsers)

		api.POST("/conversations", convH.Open)
		api.GET("/conversations", convH.List)
		api.GET("/conversations/:id", convH.Get)
		api.GET("/conversations/:id/messages", convH.History)
		api.POST("/conversations/:id/messages", convH.Send)
	}

	// Живая сессия диалога
	wsGroup := r.Group("/ws", wsAuthMW)
	{
		wsGroup.GET("/conversations/:id", wsH.Attach)
	}
}
