package job

import (
	"Parlor/internal/pkg/logger"
	"Parlor/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// InvitationExpireJob 把过期未处理的邀请标记为 expired
type InvitationExpireJob struct {
	invitationSvc service.InvitationService
}

func NewInvitationExpireJob(invitationSvc service.InvitationService) *InvitationExpireJob {
	return &InvitationExpireJob{invitationSvc: invitationSvc}
}

func (s *InvitationExpireJob) Run() {
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, "job-"+uuid.NewString())
	n, err := s.invitationSvc.ExpireOverdueInvitations(ctx)
	if err != nil {
		log.ErrorContext(ctx, "expire invitations error", "err", err)
		return
	}
	if n > 0 {
		log.InfoContext(ctx, "invitations expired", "count", n)
	}
}
