package cron

import (
	"Parlor/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

const (
	invitationExpireSpec = "0 */10 * * * *"
	mediaCleanupSpec     = "@hourly"
)

type Manager struct {
	engine              *cron.Cron
	invitationExpireJob *job.InvitationExpireJob
	mediaCleanupJob     *job.MediaCleanupJob
}

func NewCronManager(invitationExpireJob *job.InvitationExpireJob, mediaCleanupJob *job.MediaCleanupJob) *Manager {
	return &Manager{
		engine:              cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		invitationExpireJob: invitationExpireJob,
		mediaCleanupJob:     mediaCleanupJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(invitationExpireSpec, s.invitationExpireJob); err != nil {
		return err
	}
	if s.mediaCleanupJob != nil {
		if _, err := s.engine.AddJob(mediaCleanupSpec, s.mediaCleanupJob); err != nil {
			return err
		}
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
