package elasticsearch

import (
	"context"
	"strings"
	"time"

	"vida-collector/internal/config"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
)

const defaultCommentsIndex = "bilibili_comments"

// CommentsIndex 返回评论索引名
func CommentsIndex() string {
	if name := config.GetElasticsearch().Index["comments"]; name != "" {
		return name
	}
	return defaultCommentsIndex
}

// GetCommentsIndexMapping 返回评论索引的 mapping（正文使用 IK 中文分词）
func GetCommentsIndexMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		},
		"mappings": {
			"properties": {
				"rpid": {"type": "long"},
				"oid": {"type": "long"},
				"bvid": {"type": "keyword"},
				"root_id": {"type": "long"},
				"parent_id": {"type": "long"},
				"dialog_id": {"type": "long"},
				"is_sub": {"type": "boolean"},
				"mid": {"type": "long"},
				"uname": {"type": "keyword"},
				"sign": {"type": "text", "index": false},
				"user_level": {"type": "integer"},
				"user_sex": {"type": "keyword"},
				"vip_type": {"type": "integer"},
				"medal_name": {"type": "keyword"},
				"medal_level": {"type": "integer"},
				"message": {
					"type": "text",
					"analyzer": "ik_max_word",
					"search_analyzer": "ik_smart"
				},
				"mentions_mids": {"type": "long"},
				"jump_url": {"type": "keyword"},
				"like_count": {"type": "long"},
				"reply_count": {"type": "long"},
				"ctime": {"type": "date", "format": "strict_date_optional_time||epoch_second"},
				"ctime_unix": {"type": "long"}
			}
		}
	}`
}

// EnsureCommentsIndex 确保评论索引存在，不存在则创建
func EnsureCommentsIndex(ctx context.Context) error {
	indexName := CommentsIndex()

	created, err := ensureIndex(ctx, indexName, strings.NewReader(GetCommentsIndexMapping()))
	if err != nil {
		return err
	}
	if created {
		logger.Info("Elasticsearch comments index created", zap.String("index", indexName))
	} else {
		logger.Info("Elasticsearch comments index already exists", zap.String("index", indexName))
	}
	return nil
}

// InitIndexes 初始化所有索引（启动时调用）
func InitIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return EnsureCommentsIndex(ctx)
}
