package middleware

import (
	"Parlor/internal/pkg/security"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入 user_id，失败或缺失则为空串
func AuthOptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Set("user_id", "")
			c.Next()
			return
		}

		claims, err := security.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.Set("user_id", "")
		} else {
			setUser(c, claims.UserID)
		}
		c.Next()
	}
}
