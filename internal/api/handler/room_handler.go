package handler

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomSvc service.RoomService
}

func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

func (s *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomDTO
	if !bindJSON(c, &req) {
		return
	}
	room, member, err := s.roomSvc.CreatePublicOrPrivateRoom(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"room":   room,
		"member": member,
	})
}

func (s *RoomHandler) CreateDirectRoom(c *gin.Context) {
	var req dto.CreateDirectRoomDTO
	if !bindJSON(c, &req) {
		return
	}
	room, _, _, err := s.roomSvc.CreateDirectMessageRoom(c.Request.Context(), currentUser(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

func (s *RoomHandler) SearchRooms(c *gin.Context) {
	rooms, err := s.roomSvc.SearchPublicRooms(c.Request.Context(), strings.TrimSpace(c.Query("keyword")), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

func (s *RoomHandler) MyRooms(c *gin.Context) {
	rooms, err := s.roomSvc.FetchRoomsUserBelongsTo(c.Request.Context(), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

func (s *RoomHandler) DirectRooms(c *gin.Context) {
	rooms, err := s.roomSvc.FetchUserDirectMessageRooms(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// GetRoom 公开房间无需登录
func (s *RoomHandler) GetRoom(c *gin.Context) {
	room, err := s.roomSvc.GetRoom(c.Request.Context(), c.Param("room_id"), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

func (s *RoomHandler) UpdateRoom(c *gin.Context) {
	var req dto.UpdateRoomDTO
	if !bindJSON(c, &req) {
		return
	}
	room, err := s.roomSvc.UpdateRoom(c.Request.Context(), c.Param("room_id"), currentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

func (s *RoomHandler) DeleteRoom(c *gin.Context) {
	if err := s.roomSvc.DeleteRoom(c.Request.Context(), c.Param("room_id"), currentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *RoomHandler) Join(c *gin.Context) {
	member, err := s.roomSvc.JoinPublicRoom(c.Request.Context(), c.Param("room_id"), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

func (s *RoomHandler) Leave(c *gin.Context) {
	if err := s.roomSvc.LeaveRoom(c.Request.Context(), c.Param("room_id"), currentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *RoomHandler) ListMembers(c *gin.Context) {
	members, err := s.roomSvc.ListMembers(c.Request.Context(), c.Param("room_id"), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

func (s *RoomHandler) SetAdmin(c *gin.Context) {
	var req dto.SetAdminDTO
	if !bindJSON(c, &req) {
		return
	}
	member, err := s.roomSvc.SetUserAsAdmin(c.Request.Context(), c.Param("room_id"), currentUser(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

func (s *RoomHandler) IsAdmin(c *gin.Context) {
	isAdmin, err := s.roomSvc.IsUserAdmin(c.Request.Context(), c.Param("room_id"), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"is_admin": isAdmin})
}
