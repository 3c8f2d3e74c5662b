// Package credential 管理各平台请求凭证（Cookie 与请求头）的进程内快照。
//
// 读取方在一次请求中只拿一次快照；刷新时整体替换快照，
// 并发的采集任务要么看到旧凭证要么看到新凭证，不会看到部分更新。
package credential

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Credential 一份不可变的请求凭证
type Credential struct {
	Cookie         string
	UserAgent      string
	Referer        string
	Origin         string
	AcceptLanguage string
	UpdatedAt      time.Time
}

// Header 根据凭证生成请求头
func (c *Credential) Header() http.Header {
	h := make(http.Header)
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	set("Cookie", c.Cookie)
	set("User-Agent", c.UserAgent)
	set("Referer", c.Referer)
	set("Origin", c.Origin)
	set("Accept-Language", c.AcceptLanguage)
	set("Accept", "application/json, text/plain, */*")
	return h
}

// Store 凭证快照容器，零值可用
type Store struct {
	cur atomic.Pointer[Credential]
}

// NewStore 使用初始凭证创建 Store
func NewStore(initial Credential) *Store {
	s := &Store{}
	s.Swap(initial)
	return s
}

// Load 返回当前快照；从未设置时返回空凭证
func (s *Store) Load() *Credential {
	if c := s.cur.Load(); c != nil {
		return c
	}
	return &Credential{}
}

// Swap 安装新的快照，返回旧快照
func (s *Store) Swap(c Credential) *Credential {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	return s.cur.Swap(&c)
}

// UpdateCookie 基于当前快照复制出只替换 Cookie 的新快照
func (s *Store) UpdateCookie(cookie string) *Credential {
	for {
		old := s.cur.Load()
		next := Credential{}
		if old != nil {
			next = *old
		}
		next.Cookie = cookie
		next.UpdatedAt = time.Now()
		if s.cur.CompareAndSwap(old, &next) {
			return &next
		}
	}
}
