package handler

import (
	"errors"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/api/response"
	"vida-collector/internal/service"
	"vida-collector/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueToken 签发服务令牌
// @Summary 签发服务令牌
// @Description 使用管理密钥为调用方服务签发 JWT
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "服务名与管理密钥"
// @Success 200 {object} response.Response{data=dto.TokenData} "签发成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 401 {object} response.ErrorResponse "管理密钥错误"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.authService.IssueToken(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredential) {
			logger.Warn("Token request rejected", zap.String("service", req.Service), zap.String("ip", c.ClientIP()))
			response.Unauthorized(c, err.Error())
			return
		}
		logger.Error("Issue token failed", zap.Error(err))
		response.InternalError(c, "签发令牌失败")
		return
	}

	response.OK(c, "签发成功", data)
}
