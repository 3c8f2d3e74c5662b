package dto

import (
	"time"

	"vida-collector/internal/model"
)

// CreateTaskRequest 创建评论采集任务
type CreateTaskRequest struct {
	// InputContent BV 号、视频链接或 b23.tv 短链
	InputContent string `json:"input_content" binding:"required,min=1,max=1000"`
	StartPage    int    `json:"start_page" binding:"omitempty,min=1"`
	Platform     string `json:"platform" binding:"omitempty,oneof=bilibili"`
}

// TaskInfo 任务详情
type TaskInfo struct {
	ID           int64            `json:"id"`
	TaskType     string           `json:"task_type"`
	Platform     string           `json:"platform"`
	InputContent string           `json:"input_content"`
	ResourceID   string           `json:"resource_id"`
	StartPage    int              `json:"start_page"`
	Status       model.TaskStatus `json:"status"`
	TotalCount   int64            `json:"total_count"`
	SuccessCount int64            `json:"success_count"`
	ErrorMessage string           `json:"error_message,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	// Progress 运行中任务的实时进度
	Progress *model.Progress `json:"progress,omitempty"`
}

// NewTaskInfo 由任务记录构造
func NewTaskInfo(t *model.CrawlerTask) TaskInfo {
	return TaskInfo{
		ID:           t.ID,
		TaskType:     t.TaskType,
		Platform:     t.Platform,
		InputContent: t.InputContent,
		ResourceID:   t.ResourceID,
		StartPage:    t.StartPage,
		Status:       t.Status,
		TotalCount:   t.TotalCount,
		SuccessCount: t.SuccessCount,
		ErrorMessage: t.ErrorMessage,
		StartedAt:    t.StartedAt,
		FinishedAt:   t.FinishedAt,
		CreatedAt:    t.CreatedAt,
	}
}

// TaskListQuery 任务列表查询参数
type TaskListQuery struct {
	Skip   int    `form:"skip" binding:"omitempty,min=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending running succeeded failed"`
}

// TaskListData 任务列表
type TaskListData struct {
	Items []TaskInfo `json:"items"`
	Total int64      `json:"total"`
}

// ScrapeQuery 同步采集参数
type ScrapeQuery struct {
	BvID      string `form:"bv_id" binding:"required"`
	StartPage int    `form:"start_page" binding:"omitempty,min=1"`
}

// CommentsData 同步采集结果：扁平化后的评论记录
type CommentsData struct {
	Bvid         string           `json:"bvid"`
	Oid          int64            `json:"oid"`
	Status       model.TaskStatus `json:"status"`
	TotalCount   int64            `json:"total_count"`
	SuccessCount int64            `json:"success_count"`
	Dropped      int64            `json:"dropped"`
	Duplicates   int64            `json:"duplicates"`
	SkippedPages int              `json:"skipped_pages"`
	Error        string           `json:"error,omitempty"`
	Comments     []model.Comment  `json:"comments"`
}

// BVQuery BV 号参数
type BVQuery struct {
	BvID string `form:"bv_id" binding:"required"`
}

// BVToAIDData BV 号转换结果
type BVToAIDData struct {
	BvID string `json:"bv_id"`
	Aid  int64  `json:"aid"`
}

// CookieUpdateRequest Cookie 刷新 Webhook（浏览器扩展推送）
type CookieUpdateRequest struct {
	Cookie    string `json:"cookie"`
	Timestamp string `json:"timestamp"`
	Test      bool   `json:"test"`
	Message   string `json:"message"`
}

// MessageData 仅含提示信息的响应
type MessageData struct {
	Message string `json:"message"`
}
