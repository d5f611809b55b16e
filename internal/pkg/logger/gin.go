package logger

import (
	"Parlor/internal/api/config"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 挂载 JSON 格式访问日志与 panic 恢复
func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: []string{"/api/ping"},
		Formatter: func(p gin.LogFormatterParams) string {
			var traceID, userID string
			if p.Keys != nil {
				traceID, _ = p.Keys[TraceIDKey].(string)
				userID, _ = p.Keys[UserIDKey].(string)
			}
			if traceID == "" && p.Request != nil {
				traceID, _ = p.Request.Context().Value(TraceIDKey).(string)
			}

			cfg := config.Cfg.Logstash
			return fmt.Sprintf(
				`{"time":"%s","level":"INFO","msg":"GIN_ACCESS","trace_id":"%s","user_id":"%s","log_token":"%s","target_index":"%s","method":"%s","path":"%s","status":%d,"latency":"%v","client_ip":"%s"}`+"\n",
				p.TimeStamp.Format(time.RFC3339),
				traceID,
				userID,
				cfg.Token,
				cfg.Index,
				p.Method,
				p.Path,
				p.StatusCode,
				p.Latency,
				p.ClientIP,
			)
		},
	}))

	r.Use(gin.Recovery())
}
