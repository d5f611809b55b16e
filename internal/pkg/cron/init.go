package cron

import log "log/slog"

// InitCron 注册并启动全部定时任务，返回的函数用于停机时等待正在执行的任务
func InitCron(mgr *Manager) (func(), error) {
	if err := mgr.RegisterJobs(); err != nil {
		return nil, err
	}
	mgr.Start()
	log.Info("Cron jobs started", "entries", len(mgr.engine.Entries()))
	return mgr.Stop, nil
}
