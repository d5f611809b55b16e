package repository

import (
	"Parlor/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	GetProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error)
	CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error
	UpdateUser(ctx context.Context, id string, patch Filter) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, patch Filter) (*model.Profile, error)
	CancelUser(ctx context.Context, id string) error
}

type userRepoImpl struct {
	db       *gorm.DB
	users    *Record[model.User]
	profiles *Record[model.Profile]
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepoImpl{
		db:       db,
		users:    NewRecord[model.User](db),
		profiles: NewRecord[model.Profile](db),
	}
}

func (s *userRepoImpl) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, nil
	}
	return s.users.Fetch(ctx, Filter{"id": id})
}

func (s *userRepoImpl) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByIdentifier 通过邮箱或用户名查找
func (s *userRepoImpl) GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		Order("created_at ASC").
		Take(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *userRepoImpl) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

func (s *userRepoImpl) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, nil
	}
	return s.profiles.Fetch(ctx, Filter{"user_id": userID})
}

func (s *userRepoImpl) GetProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	res := make(map[string]*model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}
	var profiles []*model.Profile
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		res[p.UserID] = p
	}
	return res, nil
}

// CreateUser 同一事务内创建用户与空资料
func (s *userRepoImpl) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return s.profiles.WithTx(tx).Create(ctx, profile)
	})
}

func (s *userRepoImpl) UpdateUser(ctx context.Context, id string, patch Filter) (*model.User, error) {
	return s.users.Update(ctx, Filter{"id": id}, patch)
}

func (s *userRepoImpl) UpdateProfile(ctx context.Context, userID string, patch Filter) (*model.Profile, error) {
	return s.profiles.Update(ctx, Filter{"user_id": userID}, patch)
}

// CancelUser 注销：匿名化账号、清空资料并退出所有房间
func (s *userRepoImpl) CancelUser(ctx context.Context, id string) error {
	placeholder := fmt.Sprintf("deleted_%s_%d", id, time.Now().Unix())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.users.WithTx(tx).Update(ctx, Filter{"id": id}, Filter{
			"username":   placeholder,
			"email":      placeholder + "@deleted.invalid",
			"first_name": nil,
			"last_name":  nil,
			"password":   "",
			"status":     model.UserStatusDeleted,
		})
		if err != nil {
			return err
		}

		_, err = s.profiles.WithTx(tx).Update(ctx, Filter{"user_id": id}, Filter{
			"bio":        nil,
			"avatar_url": nil,
			"profession": nil,
			"gender":     nil,
		})
		if err != nil {
			return err
		}

		_, err = NewRecord[model.RoomMember](tx).UpdateAll(ctx, Filter{"user_id": id}, Filter{
			"left_room": true,
			"is_admin":  false,
		})
		return err
	})
}
