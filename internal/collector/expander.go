package collector

import (
	"context"
	"errors"

	"vida-collector/internal/bilibili"

	"go.uber.org/zap"
)

// Expansion 一条主评论的完整子评论集合
type Expansion struct {
	Replies   []bilibili.RawComment
	Fetches   int
	Skipped   int
	Truncated bool
}

// ReplyExpander 展开主评论下的全部子评论
type ReplyExpander struct {
	fetcher  PageFetcher
	throttle *Throttle
	pageSize int
	log      *zap.Logger
}

// NewReplyExpander 创建子评论展开器
func NewReplyExpander(fetcher PageFetcher, throttle *Throttle, pageSize int, log *zap.Logger) *ReplyExpander {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ReplyExpander{fetcher: fetcher, throttle: throttle, pageSize: pageSize, log: log}
}

// Expand 合并内嵌子评论与分页子评论，按 rpid 去重（内嵌优先）
// 只有上下文取消会返回错误，其余失败都降级为部分结果
func (e *ReplyExpander) Expand(ctx context.Context, oid int64, root *bilibili.RawComment) (*Expansion, error) {
	rootID := root.ID()
	exp := &Expansion{Replies: make([]bilibili.RawComment, 0, len(root.Replies))}
	seen := make(map[int64]struct{}, len(root.Replies))

	add := func(items []bilibili.RawComment) {
		for _, item := range items {
			id := item.ID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			exp.Replies = append(exp.Replies, item)
		}
	}
	add(root.Replies)

	replyCount := root.ReplyCount()
	if replyCount <= 0 {
		return exp, nil
	}

	size := e.pageSize
	maxFetches := guardFor(replyCount, size)
	lastTotal := replyCount

	for pn := 1; ; pn++ {
		if exp.Fetches >= maxFetches {
			exp.Truncated = true
			e.log.Warn("子评论分页超出上限，截断",
				zap.Int64("root", rootID),
				zap.Int64("reply_count", replyCount),
				zap.Int("fetches", exp.Fetches),
			)
			return exp, nil
		}

		if err := e.throttle.Wait(ctx, bilibili.ReplyPage, replyCount); err != nil {
			return exp, err
		}

		page, err := e.fetch(ctx, oid, rootID, pn)
		exp.Fetches++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return exp, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return exp, err
			}
			if bilibili.IsFatal(err) {
				exp.Truncated = true
				e.log.Error("子评论展开中止", zap.Int64("root", rootID), zap.Int("page", pn), zap.Error(err))
				return exp, nil
			}
			exp.Skipped++
			e.log.Warn("跳过子评论页", zap.Int64("root", rootID), zap.Int("page", pn), zap.Error(err))
			if int64(pn*size) >= lastTotal {
				return exp, nil
			}
			continue
		}

		if page.Empty() {
			return exp, nil
		}
		add(page.Items)

		if page.Size > 0 && page.Size != size {
			size = page.Size
			maxFetches = guardFor(replyCount, size)
		}
		total := page.DeclaredTotal
		if total <= 0 {
			total = replyCount
		}
		lastTotal = total
		if int64(pn*size) >= total {
			return exp, nil
		}
	}
}

func (e *ReplyExpander) fetch(ctx context.Context, oid, rootID int64, pn int) (*bilibili.Page, error) {
	page, err := e.fetcher.FetchReplyPage(ctx, oid, rootID, pn, e.pageSize)
	if err == nil || !bilibili.IsTransient(err) {
		return page, err
	}

	e.log.Warn("子评论页请求失败，冷却后重试", zap.Int64("root", rootID), zap.Int("page", pn), zap.Error(err))
	if err := e.throttle.Cooldown(ctx); err != nil {
		return nil, err
	}
	if err := e.throttle.Acquire(ctx); err != nil {
		return nil, err
	}
	return e.fetcher.FetchReplyPage(ctx, oid, rootID, pn, e.pageSize)
}

// guardFor 子评论分页请求次数上限：ceil(count/size)+1
func guardFor(replyCount int64, size int) int {
	return int((replyCount+int64(size)-1)/int64(size)) + 1
}
