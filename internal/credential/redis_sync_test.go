package credential

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisSync_PublishAndRestore(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	rs := NewRedisSync(rdb, "bilibili", nil)

	store := NewStore(Credential{Cookie: "stale", UserAgent: "ua"})
	restored, err := rs.Restore(ctx, store)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, "stale", store.Load().Cookie)

	require.NoError(t, rs.Publish(ctx, "SESSDATA=fresh"))

	restored, err = rs.Restore(ctx, store)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "SESSDATA=fresh", store.Load().Cookie)
	assert.Equal(t, "ua", store.Load().UserAgent)
}

func TestRedisSync_RestoreMalformed(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, "crawler:cookie:bilibili", "not json", 0).Err())

	_, err := NewRedisSync(rdb, "bilibili", nil).Restore(ctx, NewStore(Credential{}))
	assert.Error(t, err)
}

func TestRedisSync_SyncRestoresThenWatches(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rs := NewRedisSync(rdb, "bilibili", nil)
	require.NoError(t, rs.Publish(ctx, "persisted"))

	store := NewStore(Credential{Cookie: "old"})
	restored, err := rs.Sync(ctx, store)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "persisted", store.Load().Cookie)

	// Sync 返回时订阅已确认，紧随其后的一次刷新不会丢失
	require.NoError(t, rs.Publish(context.Background(), "new"))
	assert.Eventually(t, func() bool {
		return store.Load().Cookie == "new"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisSync_WatchStopsOnCancel(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	rs := NewRedisSync(rdb, "bilibili", nil)
	sub := rdb.Subscribe(ctx, rs.channel())
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		rs.watch(ctx, sub, NewStore(Credential{}))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
