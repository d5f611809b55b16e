package middleware

import (
	"Parlor/internal/pkg/response"
	"Parlor/internal/pkg/security"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenChecker 判断 Token 是否已注销
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		revoked, err := checker.IsTokenRevoked(c.Request.Context(), tokenString)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check token blacklist failed", "err", err)
			response.Fail(c, response.InternalServerError, "未知错误")
			c.Abort()
			return
		}
		if revoked {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		setUser(c, claims.UserID)
		c.Next()
	}
}

func setUser(c *gin.Context, userID string) {
	c.Set("user_id", userID)
	newCtx := context.WithValue(c.Request.Context(), "user_id", userID)
	c.Request = c.Request.WithContext(newCtx)
}
