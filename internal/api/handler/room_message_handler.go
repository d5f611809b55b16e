package handler

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"

	"github.com/gin-gonic/gin"
)

type RoomMessageHandler struct {
	messageSvc service.RoomMessageService
}

func NewRoomMessageHandler(messageSvc service.RoomMessageService) *RoomMessageHandler {
	return &RoomMessageHandler{messageSvc: messageSvc}
}

func (s *RoomMessageHandler) Send(c *gin.Context) {
	var req dto.SendRoomMessageDTO
	if !bindJSON(c, &req) {
		return
	}
	msg, err := s.messageSvc.SendMessage(c.Request.Context(), c.Param("room_id"), currentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *RoomMessageHandler) List(c *gin.Context) {
	msgs, err := s.messageSvc.ListMessages(c.Request.Context(), c.Param("room_id"), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgs)
}

func (s *RoomMessageHandler) Update(c *gin.Context) {
	var req dto.EditMessageDTO
	if !bindJSON(c, &req) {
		return
	}
	msg, err := s.messageSvc.UpdateMessage(c.Request.Context(), c.Param("room_id"), currentUser(c),
		c.Param("message_id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *RoomMessageHandler) Delete(c *gin.Context) {
	err := s.messageSvc.DeleteMessage(c.Request.Context(), c.Param("room_id"), currentUser(c), c.Param("message_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
