package middleware

import (
	"errors"
	"strings"

	"vida-collector/internal/api/response"
	"vida-collector/pkg/logger"
	"vida-collector/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ContextKeySubject = "serviceSubject"

// ServiceAuthRequired 服务令牌认证中间件，采集接口与 Cookie Webhook 均需携带
func ServiceAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "缺少认证令牌")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		switch {
		case errors.Is(err, utils.ErrExpiredToken):
			response.Unauthorized(c, "认证令牌已过期，请重新签发")
			c.Abort()
			return
		case err != nil:
			logger.Warn("Rejected service token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			response.Unauthorized(c, "无效的认证令牌")
			c.Abort()
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// GetSubject 获取当前调用方服务名
func GetSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
