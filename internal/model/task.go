package model

import "time"

// TaskStatus 采集任务状态
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Terminal 是否为终态
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// 平台与任务类型
const (
	PlatformBilibili = "bilibili"

	TaskTypeComments = "comments"
)

// CrawlerTask 采集任务表，由调用方创建，流水线回写终态
type CrawlerTask struct {
	ID           int64      `gorm:"primaryKey;autoIncrement;comment:任务唯一ID" json:"id"`
	TaskType     string     `gorm:"size:32;not null;default:'comments';comment:任务类型" json:"task_type"`
	Platform     string     `gorm:"size:32;not null;index:idx_task_platform_status,priority:1;comment:平台" json:"platform"`
	InputContent string     `gorm:"size:1000;not null;comment:输入内容（链接/ID）" json:"input_content"`
	ResourceID   string     `gorm:"size:50;index:idx_task_resource;comment:视频BV号" json:"resource_id"`
	StartPage    int        `gorm:"not null;default:1;comment:起始页" json:"start_page"`
	Status       TaskStatus `gorm:"size:20;not null;default:'pending';index:idx_task_platform_status,priority:2;comment:任务状态" json:"status"`
	TotalCount   int64      `gorm:"not null;default:0;comment:采集总数" json:"total_count"`
	SuccessCount int64      `gorm:"not null;default:0;comment:成功数" json:"success_count"`
	ErrorMessage string     `gorm:"type:text;comment:失败原因" json:"error_message,omitempty"`
	StartedAt    *time.Time `gorm:"comment:开始时间" json:"started_at,omitempty"`
	FinishedAt   *time.Time `gorm:"comment:结束时间" json:"finished_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (CrawlerTask) TableName() string {
	return "crawler_task"
}

// CrawlerRecord 采集记录表：每次任务结束写入一条结果摘要
type CrawlerRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID     int64     `gorm:"not null;index:idx_record_task_id" json:"task_id"`
	ResourceID string    `gorm:"size:50;comment:视频BV号" json:"resource_id"`
	ParsedData string    `gorm:"type:text;comment:结果摘要JSON" json:"parsed_data"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CrawlerRecord) TableName() string {
	return "crawler_record"
}
