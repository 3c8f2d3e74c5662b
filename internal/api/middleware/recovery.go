package middleware

import (
	"vida-collector/internal/api/response"
	"vida-collector/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 恢复中间件，捕获 panic 并返回统一错误响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)

				if !c.Writer.Written() {
					response.InternalError(c, "服务器内部错误")
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
