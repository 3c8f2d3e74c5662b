package service

import (
	"errors"

	"vida-collector/internal/api/dto"
	"vida-collector/pkg/utils"
)

var ErrInvalidCredential = errors.New("管理密钥错误")

type AuthService struct {
	adminKeyHash string
}

// NewAuthService adminKeyHash 为 bcrypt 哈希，为空时拒绝所有签发
func NewAuthService(adminKeyHash string) *AuthService {
	return &AuthService{adminKeyHash: adminKeyHash}
}

// IssueToken 校验管理密钥后为调用方服务签发令牌
func (s *AuthService) IssueToken(req *dto.TokenRequest) (*dto.TokenData, error) {
	if !utils.VerifySecret(req.AdminKey, s.adminKeyHash) {
		return nil, ErrInvalidCredential
	}

	token, ttl, err := utils.GenerateServiceToken(req.Service)
	if err != nil {
		return nil, err
	}

	return &dto.TokenData{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(ttl.Seconds()),
		Subject:   req.Service,
	}, nil
}
