package api

import (
	"Parlor/internal/api/middleware"
	"Parlor/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(group.TokenChecker)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.GET("/:user_id", group.UserHandler.GetUserByID)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
				authGroup.PUT("/profile", group.UserHandler.UpdateProfile)
				authGroup.PUT("/avatar", group.UserHandler.UpdateAvatar)
				authGroup.POST("/cancel", group.UserHandler.CancelUser)
			}
		}

		roomGroup := apiGroup.Group("/rooms")
		{
			optGroup := roomGroup.Group("")
			optGroup.Use(middleware.AuthOptionalMiddleware())
			{
				optGroup.GET("/search", group.RoomHandler.SearchRooms)
				optGroup.GET("/:room_id", group.RoomHandler.GetRoom)
			}

			authGroup := roomGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.RoomHandler.CreateRoom)
				authGroup.GET("/mine", group.RoomHandler.MyRooms)
				authGroup.GET("/dm", group.RoomHandler.DirectRooms)
				authGroup.POST("/dm", group.RoomHandler.CreateDirectRoom)
				authGroup.PUT("/:room_id", group.RoomHandler.UpdateRoom)
				authGroup.DELETE("/:room_id", group.RoomHandler.DeleteRoom)

				authGroup.POST("/:room_id/join", group.RoomHandler.Join)
				authGroup.POST("/:room_id/leave", group.RoomHandler.Leave)
				authGroup.GET("/:room_id/members", group.RoomHandler.ListMembers)
				authGroup.POST("/:room_id/admins", group.RoomHandler.SetAdmin)
				authGroup.GET("/:room_id/admins/:user_id", group.RoomHandler.IsAdmin)
				authGroup.POST("/:room_id/invitations", group.InvitationHandler.Invite)

				authGroup.GET("/:room_id/messages", group.RoomMessageHandler.List)
				authGroup.POST("/:room_id/messages", group.RoomMessageHandler.Send)
				authGroup.PUT("/:room_id/messages/:message_id", group.RoomMessageHandler.Update)
				authGroup.DELETE("/:room_id/messages/:message_id", group.RoomMessageHandler.Delete)
			}
		}

		invitationGroup := apiGroup.Group("/invitations")
		invitationGroup.Use(auth)
		{
			invitationGroup.GET("", group.InvitationHandler.ListPending)
			invitationGroup.POST("/:invitation_id", group.InvitationHandler.Respond)
		}

		dmGroup := apiGroup.Group("/dm")
		dmGroup.Use(auth)
		{
			dmGroup.POST("/messages", group.DirectMessageHandler.Send)
			dmGroup.PUT("/messages/:message_id", group.DirectMessageHandler.Edit)
			dmGroup.DELETE("/messages/:message_id", group.DirectMessageHandler.Delete)
			dmGroup.POST("/messages/:message_id/read", group.DirectMessageHandler.MarkRead)

			dmGroup.GET("/conversations", group.DirectMessageHandler.ListConversations)
			dmGroup.GET("/conversations/:conversation_id/messages", group.DirectMessageHandler.ListMessages)
			dmGroup.POST("/conversations/:conversation_id/read", group.DirectMessageHandler.MarkConversationRead)
			dmGroup.DELETE("/conversations/:conversation_id", group.DirectMessageHandler.DeleteConversation)
		}

		apiGroup.GET("/im/ws", group.WSHandler.Connect)

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(auth)
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}
	}

	return r
}
