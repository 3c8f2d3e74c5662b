package minio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"vida-collector/internal/bilibili"
	"vida-collector/internal/config"
	"vida-collector/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var client *minio.Client

// Init 初始化 MinIO 客户端并确保归档 Bucket 存在
func Init(cfg *config.MinIOConfig, buckets ...string) error {
	var err error
	client, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bucket := range append(cfg.Buckets, buckets...) {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
			logger.Info("MinIO bucket created", zap.String("bucket", bucket))
		}
	}

	logger.Info("MinIO connected", zap.String("endpoint", cfg.Endpoint))
	return nil
}

// Get 获取 MinIO 客户端实例
func Get() *minio.Client {
	return client
}

// Archiver 把每个成功的评论分页原始响应写入对象存储，便于回放与排查
type Archiver struct {
	bucket string
}

// NewArchiver 创建归档器，需先调用 Init
func NewArchiver(bucket string) *Archiver {
	return &Archiver{bucket: bucket}
}

// ArchivePage 对象路径：raw/{bvid}/{task}/root-0001.json 或 raw/{bvid}/{task}/reply-{root}-0001.json
func (a *Archiver) ArchivePage(ctx context.Context, ref bilibili.PageRef, body []byte) error {
	if client == nil {
		return fmt.Errorf("minio client not initialized")
	}
	object := ObjectName(ctx, ref)
	_, err := client.PutObject(ctx, a.bucket, object, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", object, err)
	}
	return nil
}

// ObjectName 根据上下文中的任务信息生成对象路径，缺失时退回 oid
func ObjectName(ctx context.Context, ref bilibili.PageRef) string {
	video := fmt.Sprintf("av%d", ref.Oid)
	task := "adhoc"
	if t, ok := bilibili.TraceFrom(ctx); ok {
		if t.Bvid != "" {
			video = t.Bvid
		}
		if t.TaskID != 0 {
			task = fmt.Sprintf("%d", t.TaskID)
		}
	}

	if ref.Kind == bilibili.ReplyPage {
		return fmt.Sprintf("raw/%s/%s/reply-%d-%04d.json", video, task, ref.RootID, ref.Page)
	}
	return fmt.Sprintf("raw/%s/%s/root-%04d.json", video, task, ref.Page)
}
