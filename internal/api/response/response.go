package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一成功响应，router 为请求路径
type Response struct {
	Code    int         `json:"code"`
	Router  string      `json:"router"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorInfo 错误详情
type ErrorInfo struct {
	Code    int    `json:"code"`
	Router  string `json:"router"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

func success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Code:    statusCode,
		Router:  c.Request.URL.Path,
		Success: true,
		Message: message,
		Data:    data,
	})
}

func OK(c *gin.Context, message string, data interface{}) {
	success(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data interface{}) {
	success(c, http.StatusCreated, message, data)
}

// Accepted 异步任务已受理
func Accepted(c *gin.Context, message string, data interface{}) {
	success(c, http.StatusAccepted, message, data)
}

func Fail(c *gin.Context, statusCode int, errType string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorInfo{
			Code:    statusCode,
			Router:  c.Request.URL.Path,
			Message: message,
			Type:    errType,
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, "BadRequest", message)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "Unauthorized", message)
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, "Forbidden", message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, "NotFound", message)
}

// BadGateway 上游平台不可用
func BadGateway(c *gin.Context, message string) {
	Fail(c, http.StatusBadGateway, "BadGateway", message)
}

// ServiceUnavailable 依赖组件未启用
func ServiceUnavailable(c *gin.Context, message string) {
	Fail(c, http.StatusServiceUnavailable, "ServiceUnavailable", message)
}

func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, "InternalServerError", message)
}
