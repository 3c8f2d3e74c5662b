package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vida-collector/internal/config"
	"vida-collector/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

var client *redis.Client

// ErrNotInitialized Init 之前访问客户端
var ErrNotInitialized = errors.New("redis client not initialized")

// Open 按配置建立连接并探活，失败时关闭已建立的连接池
func Open(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    poolSize,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr(), err)
	}
	return rdb, nil
}

// Init 初始化进程级客户端，api 与 worker 共用它同步 Cookie 和任务进度
func Init(cfg *config.RedisConfig) error {
	rdb, err := Open(context.Background(), cfg)
	if err != nil {
		return err
	}
	client = rdb
	logger.Info("Redis connected",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)
	return nil
}

// Ping 健康检查
func Ping(ctx context.Context) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Ping(ctx).Err()
}

func Get() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	logger.Info("Redis connection closed")
	return err
}
