package handler

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"

	"github.com/gin-gonic/gin"
)

type DirectMessageHandler struct {
	dmSvc service.DirectMessageService
}

func NewDirectMessageHandler(dmSvc service.DirectMessageService) *DirectMessageHandler {
	return &DirectMessageHandler{dmSvc: dmSvc}
}

func (s *DirectMessageHandler) Send(c *gin.Context) {
	var req dto.SendDirectMessageDTO
	if !bindJSON(c, &req) {
		return
	}
	msg, err := s.dmSvc.SendMessage(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *DirectMessageHandler) ListConversations(c *gin.Context) {
	page, err := s.dmSvc.ListConversations(c.Request.Context(), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *DirectMessageHandler) ListMessages(c *gin.Context) {
	msgs, err := s.dmSvc.ListMessages(c.Request.Context(), c.Param("conversation_id"), currentUser(c), pageOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgs)
}

func (s *DirectMessageHandler) MarkConversationRead(c *gin.Context) {
	n, err := s.dmSvc.MarkConversationRead(c.Request.Context(), c.Param("conversation_id"), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"marked": n})
}

func (s *DirectMessageHandler) DeleteConversation(c *gin.Context) {
	if err := s.dmSvc.DeleteConversationForSide(c.Request.Context(), c.Param("conversation_id"), currentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *DirectMessageHandler) MarkRead(c *gin.Context) {
	msg, err := s.dmSvc.MarkRead(c.Request.Context(), c.Param("message_id"), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

func (s *DirectMessageHandler) Edit(c *gin.Context) {
	var req dto.EditMessageDTO
	if !bindJSON(c, &req) {
		return
	}
	msg, err := s.dmSvc.EditMessage(c.Request.Context(), c.Param("message_id"), currentUser(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

// Delete ?scope=everyone 时对双方撤回，否则只在自己一侧删除
func (s *DirectMessageHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	var err error
	if c.Query("scope") == "everyone" {
		err = s.dmSvc.DeleteMessageForEveryone(ctx, c.Param("message_id"), currentUser(c))
	} else {
		err = s.dmSvc.DeleteMessageForSide(ctx, c.Param("message_id"), currentUser(c))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
