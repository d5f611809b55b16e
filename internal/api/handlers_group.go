package api

import (
	"Parlor/internal/api/handler"
	"Parlor/internal/api/middleware"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	TokenChecker         middleware.TokenChecker
	UserHandler          *handler.UserHandler
	RoomHandler          *handler.RoomHandler
	RoomMessageHandler   *handler.RoomMessageHandler
	InvitationHandler    *handler.InvitationHandler
	DirectMessageHandler *handler.DirectMessageHandler
	MediaHandler         *handler.MediaHandler
	WSHandler            *handler.WsHandler
}
