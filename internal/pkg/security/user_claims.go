package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims Token 中携带的用户身份
type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
