package dto

import "vida-collector/internal/model"

// CommentSearchQuery 评论检索参数
type CommentSearchQuery struct {
	BvID string `form:"bv_id"`
	Q    string `form:"q"`
	Size int    `form:"size"`
}

// CommentSearchData 评论检索结果
type CommentSearchData struct {
	Items []model.Comment `json:"items"`
	Total int64           `json:"total"`
}
