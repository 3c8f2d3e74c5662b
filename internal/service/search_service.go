package service

import (
	"context"
	"errors"

	"vida-collector/internal/api/dto"
)

var ErrSearchDisabled = errors.New("评论检索未启用")

// CommentSearcher 评论全文检索后端
type CommentSearcher func(ctx context.Context, bvid, query string, size int) (*dto.CommentSearchData, error)

type SearchService struct {
	search CommentSearcher
}

// NewSearchService search 为 nil 表示未启用检索
func NewSearchService(search CommentSearcher) *SearchService {
	return &SearchService{search: search}
}

// SearchComments 按视频与关键词检索已入库评论
func (s *SearchService) SearchComments(ctx context.Context, q *dto.CommentSearchQuery) (*dto.CommentSearchData, error) {
	if s.search == nil {
		return nil, ErrSearchDisabled
	}
	size := q.Size
	if size <= 0 {
		size = 20
	}
	return s.search(ctx, q.BvID, q.Q, size)
}
