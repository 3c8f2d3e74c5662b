package credential

import (
	"sync"
	"testing"

	"vida-collector/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestStore_ZeroValue(t *testing.T) {
	var s Store
	assert.Empty(t, s.Load().Cookie)
}

func TestStore_UpdateCookieKeepsHeaders(t *testing.T) {
	s := NewStore(Credential{Cookie: "a", UserAgent: "ua", Referer: "https://www.bilibili.com"})

	next := s.UpdateCookie("b")

	assert.Equal(t, "b", next.Cookie)
	assert.Equal(t, "ua", s.Load().UserAgent)
	assert.Equal(t, "https://www.bilibili.com", s.Load().Referer)
	assert.False(t, s.Load().UpdatedAt.IsZero())
}

func TestStore_SnapshotIsImmutable(t *testing.T) {
	s := NewStore(Credential{Cookie: "a"})
	snap := s.Load()

	s.UpdateCookie("b")

	assert.Equal(t, "a", snap.Cookie)
	assert.Equal(t, "b", s.Load().Cookie)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(Credential{UserAgent: "ua"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.UpdateCookie("x")
		}()
		go func() {
			defer wg.Done()
			c := s.Load()
			// 读到的快照要么是旧的要么是新的，请求头不会丢失
			assert.Equal(t, "ua", c.UserAgent)
		}()
	}
	wg.Wait()
	assert.Equal(t, "x", s.Load().Cookie)
}

func TestCredential_Header(t *testing.T) {
	c := &Credential{Cookie: "SESSDATA=1", UserAgent: "ua", AcceptLanguage: "zh-CN"}
	h := c.Header()

	assert.Equal(t, "SESSDATA=1", h.Get("Cookie"))
	assert.Equal(t, "ua", h.Get("User-Agent"))
	assert.Equal(t, "zh-CN", h.Get("Accept-Language"))
	assert.Empty(t, h.Get("Origin"))
	assert.NotEmpty(t, h.Get("Accept"))
}

func TestFromConfig(t *testing.T) {
	c := FromConfig(&config.BilibiliConfig{
		Cookie:    "SESSDATA=abc",
		UserAgent: "Mozilla/5.0",
		Referer:   "https://www.bilibili.com/",
	})
	h := c.Header()
	assert.Equal(t, "SESSDATA=abc", h.Get("Cookie"))
	assert.Equal(t, "https://www.bilibili.com/", h.Get("Referer"))
	assert.Empty(t, h.Get("Origin"))
}
