package model

// DataTypeComment 完成事件中的数据类型
const DataTypeComment = "comment"

// CompletionEvent 任务结束后发布的完成事件
type CompletionEvent struct {
	TaskID       int64      `json:"task_id"`
	Platform     string     `json:"platform"`
	VideoID      string     `json:"video_id"`
	DataType     string     `json:"data_type"`
	Count        int64      `json:"count"`
	SuccessCount int64      `json:"success_count"`
	Status       TaskStatus `json:"status"`
	Timestamp    int64      `json:"timestamp"`
}

// TaskMessage 任务分发消息
type TaskMessage struct {
	TaskID       int64  `json:"task_id"`
	Platform     string `json:"platform"`
	InputContent string `json:"input_content"`
	StartPage    int    `json:"start_page"`
}

// Progress 任务运行中的进度快照
type Progress struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Collected  int64 `json:"collected"`
	Written    int64 `json:"written"`
}
