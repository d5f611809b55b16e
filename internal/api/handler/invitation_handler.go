package handler

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitationSvc service.InvitationService
}

func NewInvitationHandler(invitationSvc service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationSvc: invitationSvc}
}

func (s *InvitationHandler) Invite(c *gin.Context) {
	var req dto.InviteDTO
	if !bindJSON(c, &req) {
		return
	}
	inv, err := s.invitationSvc.InviteUser(c.Request.Context(), c.Param("room_id"), currentUser(c), req.InviteeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, inv)
}

func (s *InvitationHandler) Respond(c *gin.Context) {
	var req dto.RespondInvitationDTO
	if !bindJSON(c, &req) {
		return
	}
	inv, err := s.invitationSvc.RespondToInvitation(c.Request.Context(), c.Param("invitation_id"), currentUser(c), req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, inv)
}

func (s *InvitationHandler) ListPending(c *gin.Context) {
	list, err := s.invitationSvc.ListPendingInvitations(c.Request.Context(), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
