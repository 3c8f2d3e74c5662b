package utils

import (
	"errors"
	"fmt"
	"time"

	"vida-collector/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// ServiceClaims 服务令牌 Claims，Subject 为调用方服务名
type ServiceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeCrawler 采集接口的访问范围
const ScopeCrawler = "crawler"

// HashSecret 使用 bcrypt 对管理密钥进行哈希（生成 auth.admin_key_hash）
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(bytes), nil
}

// VerifySecret 验证密钥是否与哈希匹配
func VerifySecret(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// GenerateServiceToken 为调用方服务签发令牌，返回令牌与有效期
func GenerateServiceToken(subject string) (string, time.Duration, error) {
	jwtCfg := config.GetJWT()
	ttl := jwtCfg.ExpireDuration()
	now := time.Now()

	claims := ServiceClaims{
		Scope: ScopeCrawler,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    config.GetApp().Name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtCfg.Secret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, ttl, nil
}

// ParseToken 解析并验证服务令牌
func ParseToken(tokenString string) (*ServiceClaims, error) {
	jwtCfg := config.GetJWT()

	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtCfg.Secret), nil
	}, jwt.WithIssuer(config.GetApp().Name))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid || claims.Scope != ScopeCrawler {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
