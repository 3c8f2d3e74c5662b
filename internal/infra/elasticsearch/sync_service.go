package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
)

// CommentSink 把评论批次同步到检索索引，文档 ID 为 rpid，重复写入即覆盖
type CommentSink struct {
	index string
}

// NewCommentSink 创建索引写入器
func NewCommentSink(index string) *CommentSink {
	return &CommentSink{index: index}
}

// Write 实现 collector.Sink，table 参数对索引无意义
func (s *CommentSink) Write(ctx context.Context, _ string, records []model.Comment) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range records {
		meta := map[string]map[string]string{
			"index": {"_index": s.index, "_id": strconv.FormatInt(records[i].Rpid, 10)},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}

	resp, err := bulk(ctx, &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("bulk failed: %s", resp.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				Status int `json:"status"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}

	var success, failed int
	for _, item := range bulkResp.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			success++
		} else {
			failed++
		}
	}

	logger.Debug("Comments bulk indexed", zap.Int("success", success), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("bulk index: %d of %d documents rejected", failed, len(records))
	}
	return nil
}

// SearchComments 在指定视频的评论中全文检索，按点赞数倒序
func SearchComments(ctx context.Context, index, bvid, query string, size int) ([]model.Comment, int64, error) {
	if size <= 0 || size > 100 {
		size = 20
	}

	filter := []any{}
	if bvid != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"bvid": bvid}})
	}
	must := []any{}
	if query != "" {
		must = append(must, map[string]any{"match": map[string]any{"message": query}})
	}
	body, err := json.Marshal(map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{"filter": filter, "must": must},
		},
		"sort": []any{map[string]any{"like_count": "desc"}},
	})
	if err != nil {
		return nil, 0, err
	}

	resp, err := search(ctx, index, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, fmt.Errorf("search failed: %s", resp.String())
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.Comment `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]model.Comment, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, result.Hits.Total.Value, nil
}
