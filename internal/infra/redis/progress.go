package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vida-collector/internal/model"

	"github.com/redis/go-redis/v9"
)

const progressTTL = 24 * time.Hour

// ErrNoProgress 任务没有进度记录（未开始或已过期）
var ErrNoProgress = errors.New("no progress recorded")

// ProgressStore 任务运行进度，保存在 crawler:task:{id}:progress 哈希中
type ProgressStore struct {
	rdb *redis.Client
}

// NewProgressStore 创建进度存储
func NewProgressStore(rdb *redis.Client) *ProgressStore {
	return &ProgressStore{rdb: rdb}
}

func progressKey(taskID int64) string {
	return fmt.Sprintf("crawler:task:%d:progress", taskID)
}

// ReportProgress 覆盖写入最新进度
func (s *ProgressStore) ReportProgress(ctx context.Context, taskID int64, p model.Progress) error {
	key := progressKey(taskID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"page":        p.Page,
		"total_pages": p.TotalPages,
		"collected":   p.Collected,
		"written":     p.Written,
	})
	pipe.Expire(ctx, key, progressTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetProgress 读取最新进度
func (s *ProgressStore) GetProgress(ctx context.Context, taskID int64) (*model.Progress, error) {
	vals, err := s.rdb.HGetAll(ctx, progressKey(taskID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNoProgress
	}

	atoi := func(k string) int64 {
		n, _ := strconv.ParseInt(vals[k], 10, 64)
		return n
	}
	return &model.Progress{
		Page:       int(atoi("page")),
		TotalPages: int(atoi("total_pages")),
		Collected:  atoi("collected"),
		Written:    atoi("written"),
	}, nil
}
