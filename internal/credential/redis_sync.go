package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSync 通过 Redis 在 api 与 worker 进程间同步 Cookie
// 最新值保存在 key 中供启动时恢复，刷新事件通过 channel 广播
type RedisSync struct {
	rdb      *redis.Client
	platform string
	log      *zap.Logger
}

type cookieMessage struct {
	Cookie    string    `json:"cookie"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRedisSync 创建指定平台的同步器
func NewRedisSync(rdb *redis.Client, platform string, log *zap.Logger) *RedisSync {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisSync{rdb: rdb, platform: platform, log: log}
}

func (r *RedisSync) key() string {
	return fmt.Sprintf("crawler:cookie:%s", r.platform)
}

func (r *RedisSync) channel() string {
	return fmt.Sprintf("crawler:cookie:%s:refresh", r.platform)
}

// Publish 持久化新 Cookie 并通知其他进程
func (r *RedisSync) Publish(ctx context.Context, cookie string) error {
	payload, err := json.Marshal(cookieMessage{Cookie: cookie, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key(), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to persist cookie: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel(), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish cookie refresh: %w", err)
	}
	return nil
}

// Restore 启动时从 Redis 恢复最近一次刷新的 Cookie，返回是否恢复成功
func (r *RedisSync) Restore(ctx context.Context, store *Store) (bool, error) {
	raw, err := r.rdb.Get(ctx, r.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load cookie: %w", err)
	}

	var msg cookieMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return false, fmt.Errorf("failed to decode cookie: %w", err)
	}
	if msg.Cookie == "" {
		return false, nil
	}
	store.UpdateCookie(msg.Cookie)
	return true, nil
}

// Sync 先订阅刷新频道，确认订阅后再从 Redis 恢复 Cookie，随后在后台监听直到 ctx 取消
// 订阅失败时不启动监听；恢复失败时仍继续监听
func (r *RedisSync) Sync(ctx context.Context, store *Store) (bool, error) {
	sub := r.rdb.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return false, fmt.Errorf("failed to subscribe cookie refresh: %w", err)
	}

	restored, err := r.Restore(ctx, store)
	go r.watch(ctx, sub, store)
	return restored, err
}

// watch 消费刷新事件并替换本地快照，阻塞直到 ctx 取消
func (r *RedisSync) watch(ctx context.Context, sub *redis.PubSub, store *Store) {
	defer sub.Close()

	r.log.Info("Cookie refresh watcher started", zap.String("platform", r.platform))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Cookie refresh watcher stopped", zap.String("platform", r.platform))
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg cookieMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil || msg.Cookie == "" {
				r.log.Warn("Ignoring malformed cookie refresh", zap.Error(err))
				continue
			}
			store.UpdateCookie(msg.Cookie)
			r.log.Info("Cookie refreshed", zap.String("platform", r.platform))
		}
	}
}
