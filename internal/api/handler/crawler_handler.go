package handler

import (
	"errors"
	"strconv"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/api/response"
	"vida-collector/internal/service"
	"vida-collector/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CrawlerHandler struct {
	taskService    *service.TaskService
	crawlerService *service.CrawlerService
}

func NewCrawlerHandler(taskService *service.TaskService, crawlerService *service.CrawlerService) *CrawlerHandler {
	return &CrawlerHandler{taskService: taskService, crawlerService: crawlerService}
}

// CreateTask POST /api/v1/crawler/tasks
// @Summary 创建评论采集任务
// @Description 解析 BV 号或链接，落库后投递给 worker 异步执行
// @Tags 采集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTaskRequest true "视频链接或BV号"
// @Success 202 {object} response.Response{data=dto.TaskInfo} "任务已受理"
// @Failure 400 {object} response.ErrorResponse "无法识别的输入"
// @Failure 502 {object} response.ErrorResponse "任务分发失败"
// @Router /crawler/tasks [post]
func (h *CrawlerHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	info, err := h.taskService.CreateTask(c.Request.Context(), &req)
	if err != nil {
		handleCrawlerError(c, err, "创建任务失败")
		return
	}

	response.Accepted(c, "任务已受理", info)
}

// GetTask GET /api/v1/crawler/tasks/:id
// @Summary 查询采集任务
// @Tags 采集
// @Produce json
// @Security BearerAuth
// @Param id path int true "任务ID"
// @Success 200 {object} response.Response{data=dto.TaskInfo} "获取成功"
// @Failure 404 {object} response.ErrorResponse "任务不存在"
// @Router /crawler/tasks/{id} [get]
func (h *CrawlerHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的任务ID")
		return
	}

	info, err := h.taskService.GetTask(c.Request.Context(), id)
	if err != nil {
		handleCrawlerError(c, err, "查询任务失败")
		return
	}

	response.OK(c, "获取成功", info)
}

// ListTasks GET /api/v1/crawler/tasks
// @Summary 采集任务列表
// @Tags 采集
// @Produce json
// @Security BearerAuth
// @Param skip query int false "偏移量"
// @Param limit query int false "数量" default(20)
// @Param status query string false "状态过滤"
// @Success 200 {object} response.Response{data=dto.TaskListData} "获取成功"
// @Router /crawler/tasks [get]
func (h *CrawlerHandler) ListTasks(c *gin.Context) {
	var q dto.TaskListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.taskService.ListTasks(c.Request.Context(), &q)
	if err != nil {
		handleCrawlerError(c, err, "查询任务失败")
		return
	}

	response.OK(c, "获取成功", data)
}

// ScrapeComments GET /api/v1/crawler/bilibili/comments
// @Summary 同步采集视频全部评论
// @Description 当场遍历主评论与子评论并返回扁平化记录，不写入存储；大视频耗时较长
// @Tags 采集
// @Produce json
// @Security BearerAuth
// @Param bv_id query string true "BV号或视频链接"
// @Param start_page query int false "起始页" default(1)
// @Success 200 {object} response.Response{data=dto.CommentsData} "采集完成"
// @Failure 400 {object} response.ErrorResponse "无法识别的输入"
// @Failure 502 {object} response.ErrorResponse "B站接口不可用"
// @Router /crawler/bilibili/comments [get]
func (h *CrawlerHandler) ScrapeComments(c *gin.Context) {
	var q dto.ScrapeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.crawlerService.ScrapeComments(c.Request.Context(), &q)
	if err != nil {
		handleCrawlerError(c, err, "采集失败")
		return
	}

	response.OK(c, "采集完成", data)
}

// BVToAID GET /api/v1/crawler/bilibili/bv_to_aid
// @Summary BV号转AV号
// @Tags 采集
// @Produce json
// @Security BearerAuth
// @Param bv_id query string true "BV号"
// @Success 200 {object} response.Response{data=dto.BVToAIDData} "转换成功"
// @Failure 400 {object} response.ErrorResponse "无效的BV号"
// @Router /crawler/bilibili/bv_to_aid [get]
func (h *CrawlerHandler) BVToAID(c *gin.Context) {
	var q dto.BVQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.crawlerService.BVToAID(q.BvID)
	if err != nil {
		handleCrawlerError(c, err, "转换失败")
		return
	}

	response.OK(c, "转换成功", data)
}

// UpdateCookie PUT /api/v1/crawler/platforms/:platform/cookie
// @Summary 更新平台Cookie Webhook
// @Description 接收浏览器扩展推送的最新 Cookie，test=true 时仅用于连通性测试
// @Tags 采集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param platform path string true "平台名称，如 bilibili"
// @Param request body dto.CookieUpdateRequest true "Cookie"
// @Success 200 {object} response.Response{data=dto.MessageData} "更新成功"
// @Failure 400 {object} response.ErrorResponse "不支持的平台或 Cookie 为空"
// @Router /crawler/platforms/{platform}/cookie [put]
func (h *CrawlerHandler) UpdateCookie(c *gin.Context) {
	var req dto.CookieUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.crawlerService.RefreshCookie(c.Request.Context(), c.Param("platform"), &req)
	if err != nil {
		handleCrawlerError(c, err, "更新Cookie失败")
		return
	}

	response.OK(c, "更新成功", data)
}

// handleCrawlerError 统一处理采集相关错误
func handleCrawlerError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnsupportedPlatform),
		errors.Is(err, service.ErrEmptyCookie):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUpstreamUnavailable),
		errors.Is(err, service.ErrDispatchFailed):
		response.BadGateway(c, err.Error())
	case errors.Is(err, service.ErrSearchDisabled):
		response.ServiceUnavailable(c, err.Error())
	default:
		logger.Error(fallback, zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.InternalError(c, fallback)
	}
}
