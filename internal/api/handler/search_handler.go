package handler

import (
	"vida-collector/internal/api/dto"
	"vida-collector/internal/api/response"
	"vida-collector/internal/service"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchComments 检索已入库评论
// @Summary 检索已入库评论
// @Description 在检索索引中按视频与关键词查找评论，按点赞数倒序
// @Tags 搜索
// @Produce json
// @Security BearerAuth
// @Param bv_id query string false "BV号"
// @Param q query string false "关键词"
// @Param size query int false "数量" default(20)
// @Success 200 {object} response.Response{data=dto.CommentSearchData} "检索成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 503 {object} response.ErrorResponse "检索未启用"
// @Router /crawler/bilibili/comments/search [get]
func (h *SearchHandler) SearchComments(c *gin.Context) {
	var req dto.CommentSearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	if req.Size < 1 || req.Size > 100 {
		req.Size = 20
	}

	data, err := h.searchService.SearchComments(c.Request.Context(), &req)
	if err != nil {
		handleCrawlerError(c, err, "检索失败")
		return
	}

	response.OK(c, "检索成功", data)
}
