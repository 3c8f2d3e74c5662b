package router

import (
	"vida-collector/internal/api/handler"
	"vida-collector/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	authHandler *handler.AuthHandler,
	crawlerHandler *handler.CrawlerHandler,
	searchHandler *handler.SearchHandler,
) {
	v1 := r.Group("/api/v1")

	// --- 认证模块 ---
	auth := v1.Group("/auth")
	{
		auth.POST("/token", authHandler.IssueToken)
	}

	// --- 采集模块（需要服务令牌） ---
	crawler := v1.Group("/crawler", middleware.ServiceAuthRequired())
	{
		crawler.POST("/tasks", crawlerHandler.CreateTask)
		crawler.GET("/tasks", crawlerHandler.ListTasks)
		crawler.GET("/tasks/:id", crawlerHandler.GetTask)

		bilibili := crawler.Group("/bilibili")
		{
			bilibili.GET("/comments", crawlerHandler.ScrapeComments)
			bilibili.GET("/comments/search", searchHandler.SearchComments)
			bilibili.GET("/bv_to_aid", crawlerHandler.BVToAID)
		}

		crawler.PUT("/platforms/:platform/cookie", crawlerHandler.UpdateCookie)
	}
}
