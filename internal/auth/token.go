// Package auth 签发和校验 HS256 访问令牌。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌缺失、过期或签名不匹配
var ErrInvalidToken = errors.New("invalid token")

// Issue 为 subject 签发令牌，ttl <= 0 时不设过期时间
func Issue(key, subject string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("jwt key is missing")
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

// Verify 校验令牌并返回 subject
func Verify(key, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return sub, nil
}

// FromHeader 从 Authorization 头中取出 Bearer 令牌
func FromHeader(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
