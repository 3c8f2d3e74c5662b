package meilisearch

import (
	"context"
	"fmt"

	"vida-collector/internal/config"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const primaryKey = "rpid"

// Indexer 评论检索索引（search.driver = meilisearch 时替代 Elasticsearch）
type Indexer struct {
	client meilisearch.ServiceManager
	index  string
}

// NewIndexer 连接 Meilisearch 并确保索引与可过滤字段存在
func NewIndexer(cfg *config.MeilisearchConfig) *Indexer {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))

	if _, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        cfg.Index,
		PrimaryKey: primaryKey,
	}); err != nil {
		logger.Warn("Meilisearch create index", zap.String("index", cfg.Index), zap.Error(err))
	}

	idx := client.Index(cfg.Index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{"message", "uname"}); err != nil {
		logger.Warn("Meilisearch searchable attributes", zap.Error(err))
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"like_count", "ctime_unix"}); err != nil {
		logger.Warn("Meilisearch sortable attributes", zap.Error(err))
	}
	filterable := []interface{}{"bvid", "root_id", "is_sub", "mid"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		logger.Warn("Meilisearch filterable attributes", zap.Error(err))
	}

	logger.Info("Meilisearch connected", zap.String("host", cfg.Host), zap.String("index", cfg.Index))
	return newIndexer(client, cfg.Index)
}

func newIndexer(client meilisearch.ServiceManager, index string) *Indexer {
	return &Indexer{client: client, index: index}
}

// Write 实现 collector.Sink：以 rpid 为主键 upsert 整个批次
func (i *Indexer) Write(_ context.Context, _ string, records []model.Comment) error {
	if len(records) == 0 {
		return nil
	}
	pk := primaryKey
	task, err := i.client.Index(i.index).UpdateDocuments(records, &meilisearch.DocumentOptions{PrimaryKey: &pk})
	if err != nil {
		return fmt.Errorf("meilisearch upsert: %w", err)
	}

	logger.Debug("Comments sent to Meilisearch",
		zap.Int64("task_uid", task.TaskUID),
		zap.Int("count", len(records)),
	)
	return nil
}
