package handler

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/response"
	"Parlor/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) Register(c *gin.Context) {
	var registerDTO dto.RegisterDTO
	if !bindJSON(c, &registerDTO) {
		return
	}
	user, err := s.userSvc.Register(c.Request.Context(), &registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.CredentialDTO
	if !bindJSON(c, &loginDTO) {
		return
	}
	token, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]string{
		"token": token,
	})
}

func (s *UserHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := s.userSvc.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) GetUserInfo(c *gin.Context) {
	user, err := s.userSvc.GetUserInfo(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) GetUserByID(c *gin.Context) {
	user, err := s.userSvc.GetUserInfo(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// 他人资料不返回邮箱
	user.Email = ""
	response.Success(c, user)
}

func (s *UserHandler) UpdateProfile(c *gin.Context) {
	var profileDTO dto.ProfileDTO
	if !bindJSON(c, &profileDTO) {
		return
	}
	user, err := s.userSvc.UpdateProfile(c.Request.Context(), currentUser(c), &profileDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) UpdateAvatar(c *gin.Context) {
	var req struct {
		AvatarURL string `json:"avatar_url" binding:"required" validate:"required,url,max=512"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.userSvc.UpdateAvatar(c.Request.Context(), currentUser(c), req.AvatarURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) CancelUser(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.userSvc.CancelUser(ctx, currentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	_ = s.userSvc.Logout(ctx, token)
	response.Success(c, nil)
}
