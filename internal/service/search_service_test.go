package service

import (
	"context"
	"testing"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_SearchComments(t *testing.T) {
	var gotSize int
	var gotBvid, gotQuery string
	svc := NewSearchService(func(_ context.Context, bvid, query string, size int) (*dto.CommentSearchData, error) {
		gotBvid, gotQuery, gotSize = bvid, query, size
		return &dto.CommentSearchData{Items: []model.Comment{{Rpid: 1}}, Total: 1}, nil
	})

	data, err := svc.SearchComments(context.Background(), &dto.CommentSearchQuery{BvID: "BV18x411c74Q", Q: "好"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, data.Total)
	assert.Equal(t, "BV18x411c74Q", gotBvid)
	assert.Equal(t, "好", gotQuery)
	assert.Equal(t, 20, gotSize)
}

func TestSearchService_Disabled(t *testing.T) {
	_, err := NewSearchService(nil).SearchComments(context.Background(), &dto.CommentSearchQuery{})
	assert.ErrorIs(t, err, ErrSearchDisabled)
}
