package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrUserNotFound         = errors.New("用户不存在")
	ErrUserBan              = errors.New("用户已被封禁")
	ErrUserExist            = errors.New("用户已存在")
	ErrPasswordIncorrect    = errors.New("密码错误")
	ErrFileNotSupported     = errors.New("不支持的文件类型")
	ErrFileTooLarge         = errors.New("文件大小超出限制")
	ErrUserDoesNotExist     = errors.New("目标用户不存在")
	ErrRoomNotFound         = errors.New("房间不存在")
	ErrRoomDeactivated      = errors.New("房间已停用")
	ErrRoomTypeInvalid      = errors.New("房间类型无效")
	ErrUserNotAMember       = errors.New("用户不是房间成员")
	ErrUserNotAnAdmin       = errors.New("用户不是房间管理员")
	ErrAlreadyMember        = errors.New("用户已是房间成员")
	ErrCannotDeleteMessage  = errors.New("无权删除该消息")
	ErrCannotUpdateMessage  = errors.New("无权修改该消息")
	ErrMessageNotFound      = errors.New("消息不存在")
	ErrInvitationNotFound   = errors.New("邀请不存在")
	ErrInvitationExist      = errors.New("邀请已存在")
	ErrInvitationExpired    = errors.New("邀请已过期")
	ErrInvitationHandled    = errors.New("邀请已处理")
	ErrConversationInvalid  = errors.New("不能给自己发送私信")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrNotAParticipant      = errors.New("不是会话参与者")
	ErrRecallTimeout        = errors.New("消息已超过可撤回时间")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrUserNotFound:         NotFound,
	ErrUserBan:              Unauthorized,
	ErrUserExist:            Conflict,
	ErrPasswordIncorrect:    Unauthorized,
	ErrFileNotSupported:     BadRequest,
	ErrFileTooLarge:         BadRequest,
	ErrUserDoesNotExist:     NotFound,
	ErrRoomNotFound:         NotFound,
	ErrRoomDeactivated:      BadRequest,
	ErrRoomTypeInvalid:      BadRequest,
	ErrUserNotAMember:       Forbidden,
	ErrUserNotAnAdmin:       Forbidden,
	ErrAlreadyMember:        Conflict,
	ErrCannotDeleteMessage:  Forbidden,
	ErrCannotUpdateMessage:  Forbidden,
	ErrMessageNotFound:      NotFound,
	ErrInvitationNotFound:   NotFound,
	ErrInvitationExist:      Conflict,
	ErrInvitationExpired:    BadRequest,
	ErrInvitationHandled:    BadRequest,
	ErrConversationInvalid:  Conflict,
	ErrConversationNotFound: NotFound,
	ErrNotAParticipant:      Forbidden,
	ErrRecallTimeout:        BadRequest,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}

// CodeOf 返回错误对应的业务码，包装过的错误同样适用
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return InternalServerError, false
}
