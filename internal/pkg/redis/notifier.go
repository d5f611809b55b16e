package redis

import (
	"Parlor/internal/api/dto"
	"Parlor/internal/pkg/consts"
	"context"

	"github.com/goccy/go-json"
)

// Notifier 通过用户频道推送实时事件
type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(ctx context.Context, userID, event string, payload any) error {
	data, err := json.Marshal(&dto.PushEvent{Type: event, Data: payload})
	if err != nil {
		return err
	}
	return Publish(ctx, consts.IMUserKey+userID, data)
}
