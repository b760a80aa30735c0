// Package utils 提供通用工具函数
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidStateToken = errors.New("invalid state token")
	ErrExpiredStateToken = errors.New("state token expired")
)

// StateClaims OAuth state 令牌声明
type StateClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// StateTokenManager 签发和校验 OAuth 回调用的 state 令牌，
// 防止回调被伪造到任意用户上。
type StateTokenManager struct {
	secret string
	issuer string
}

// NewStateTokenManager 创建 state 令牌管理器
func NewStateTokenManager(secret, issuer string) *StateTokenManager {
	return &StateTokenManager{
		secret: secret,
		issuer: issuer,
	}
}

// Generate 为指定用户签发 state 令牌
func (m *StateTokenManager) Generate(userID int64, ttl time.Duration) (string, error) {
	claims := StateClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// Parse 解析并验证 state 令牌，返回其中的用户 ID
func (m *StateTokenManager) Parse(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidStateToken
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredStateToken
		}
		return 0, ErrInvalidStateToken
	}

	if claims, ok := token.Claims.(*StateClaims); ok && token.Valid {
		return claims.UserID, nil
	}

	return 0, ErrInvalidStateToken
}
