package service

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/model"
	"Parlor/internal/pkg/consts"
	"Parlor/internal/pkg/redis"
	"Parlor/internal/pkg/security"
	"Parlor/internal/pkg/util"
	"Parlor/internal/repository"
	"context"
	"errors"
	"strings"

	"github.com/jinzhu/copier"
)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) (*dto.UserDTO, error)
	Login(ctx context.Context, dto *dto.CredentialDTO) (string, error)
	Logout(ctx context.Context, token string) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
	GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error)
	UpdateProfile(ctx context.Context, id string, dto *dto.ProfileDTO) (*dto.UserDTO, error)
	UpdateAvatar(ctx context.Context, id string, url string) (*dto.UserDTO, error)
	CancelUser(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	media    MediaClaimer
}

func NewUserService(userRepo repository.UserRepo, media MediaClaimer) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		media:    media,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(regDTO.Email))
	username := strings.TrimSpace(regDTO.Username)
	if email == "" || username == "" || regDTO.Password == "" {
		return nil, ErrParamInvalid
	}

	exist, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exist {
		return nil, ErrUserExist
	}

	passwordHash, err := security.HashPassword(regDTO.Password)
	if errors.Is(err, security.ErrEmptyPassword) {
		return nil, ErrParamInvalid
	}
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Username:  username,
		FirstName: util.TrimmedPtr(regDTO.FirstName),
		LastName:  util.TrimmedPtr(regDTO.LastName),
		Password:  passwordHash,
		Status:    model.UserStatusActive,
	}
	profile := &model.Profile{}
	if err = s.userRepo.CreateUser(ctx, user, profile); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrUserExist
		}
		return nil, err
	}
	return toUserDTO(user, profile)
}

func (s *UserServiceImpl) Login(ctx context.Context, credential *dto.CredentialDTO) (string, error) {
	identifier := strings.TrimSpace(credential.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}
	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.Status == model.UserStatusBanned || user.Status == model.UserStatusDeleted {
		return "", ErrUserBan
	}
	if err = security.CheckPasswordHash(credential.Password, user.Password); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			return "", ErrPasswordIncorrect
		}
		return "", err
	}
	return security.GenerateToken(user.ID, user.Username)
}

// Logout 将 Token 签名加入黑名单直至其自然过期
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, true, security.TokenTTL())
}

func (s *UserServiceImpl) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return true, err
	}
	return redis.Exists(ctx, consts.TokenBlacklistKey+signature)
}

func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	profile, err := s.userRepo.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user, profile)
}

// UpdateProfile 只提交非空字段，名字写入 users，其余写入 profiles
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id string, profileDTO *dto.ProfileDTO) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userPatch := repository.Filter{}
	if profileDTO.FirstName != nil {
		userPatch["first_name"] = strings.TrimSpace(*profileDTO.FirstName)
	}
	if profileDTO.LastName != nil {
		userPatch["last_name"] = strings.TrimSpace(*profileDTO.LastName)
	}
	if len(userPatch) > 0 {
		if user, err = s.userRepo.UpdateUser(ctx, id, userPatch); err != nil {
			return nil, err
		}
	}

	profilePatch := repository.Filter{}
	if profileDTO.Bio != nil {
		profilePatch["bio"] = *profileDTO.Bio
	}
	if profileDTO.Profession != nil {
		profilePatch["profession"] = *profileDTO.Profession
	}
	if profileDTO.Gender != nil {
		profilePatch["gender"] = *profileDTO.Gender
	}
	profile, err := s.userRepo.UpdateProfile(ctx, id, profilePatch)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user, profile)
}

func (s *UserServiceImpl) UpdateAvatar(ctx context.Context, id string, url string) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	profile, err := s.userRepo.UpdateProfile(ctx, id, repository.Filter{"avatar_url": url})
	if err != nil {
		return nil, err
	}
	if s.media != nil {
		s.media.Claim(ctx, url)
	}
	return toUserDTO(user, profile)
}

func (s *UserServiceImpl) CancelUser(ctx context.Context, id string) error {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.CancelUser(ctx, id)
}

func toUserDTO(user *model.User, profile *model.Profile) (*dto.UserDTO, error) {
	userDTO := &dto.UserDTO{}
	if err := copier.Copy(userDTO, user); err != nil {
		return nil, err
	}
	if profile != nil {
		userDTO.Bio = profile.Bio
		userDTO.AvatarURL = profile.AvatarURL
		userDTO.Profession = profile.Profession
		userDTO.Gender = profile.Gender
	}
	createdAt := user.CreatedAt
	userDTO.CreatedAt = &createdAt
	return userDTO, nil
}
