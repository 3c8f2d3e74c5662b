package collector

import (
	"context"
	"errors"
	"fmt"

	"vida-collector/internal/bilibili"

	"go.uber.org/zap"
)

const defaultPageSize = 20

// PageFetcher 评论分页数据源，*bilibili.Client 实现了该接口
type PageFetcher interface {
	FetchRootPage(ctx context.Context, oid int64, page, pageSize int) (*bilibili.Page, error)
	FetchReplyPage(ctx context.Context, oid, rootID int64, page, pageSize int) (*bilibili.Page, error)
}

// WalkStats 一次主评论遍历的统计
type WalkStats struct {
	Pages         int
	SkippedPages  int
	TotalPages    int
	DeclaredTotal int64
}

// PageVisitor 处理一个非空主评论页，返回错误会终止遍历
type PageVisitor func(ctx context.Context, page *bilibili.Page) error

// RootWalker 按时间顺序逐页遍历视频的主评论
type RootWalker struct {
	fetcher  PageFetcher
	throttle *Throttle
	pageSize int
	log      *zap.Logger
}

// NewRootWalker 创建主评论遍历器
func NewRootWalker(fetcher PageFetcher, throttle *Throttle, pageSize int, log *zap.Logger) *RootWalker {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &RootWalker{fetcher: fetcher, throttle: throttle, pageSize: pageSize, log: log}
}

// Walk 从 startPage 开始遍历，直到空页或 page*size >= 声明总数
//
// 首页可重试错误冷却后重试一次，仍失败返回 ErrFirstPageUnavailable；
// 后续页重试失败则跳过该页继续；不可恢复错误返回 ErrWalkAborted。
func (w *RootWalker) Walk(ctx context.Context, oid int64, startPage int, visit PageVisitor) (WalkStats, error) {
	var stats WalkStats
	if startPage < 1 {
		startPage = 1
	}

	var (
		lastSize  int
		lastTotal int64
	)

	for pn := startPage; ; pn++ {
		first := pn == startPage
		// 首页不叠加页间隔，但仍受全局冷却与令牌桶约束
		var waitErr error
		if first {
			waitErr = w.throttle.Acquire(ctx)
		} else {
			waitErr = w.throttle.Wait(ctx, bilibili.RootPage, lastTotal)
		}
		if waitErr != nil {
			return stats, waitErr
		}

		page, err := w.fetch(ctx, oid, pn)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}

			if bilibili.IsFatal(err) {
				w.log.Error("主评论遍历中止", zap.Int64("oid", oid), zap.Int("page", pn), zap.Error(err))
				return stats, fmt.Errorf("%w: page %d: %v", ErrWalkAborted, pn, err)
			}
			if first {
				w.log.Error("首页获取失败", zap.Int64("oid", oid), zap.Int("page", pn), zap.Error(err))
				return stats, fmt.Errorf("%w: %v", ErrFirstPageUnavailable, err)
			}

			stats.SkippedPages++
			w.log.Warn("跳过主评论页", zap.Int64("oid", oid), zap.Int("page", pn), zap.Error(err))
			if int64(pn*lastSize) >= lastTotal {
				return stats, nil
			}
			continue
		}

		stats.Pages++
		if page.Empty() {
			w.log.Info("主评论已遍历完毕", zap.Int64("oid", oid), zap.Int("page", pn))
			return stats, nil
		}

		size := page.Size
		if size <= 0 {
			size = w.pageSize
			w.log.Warn("分页大小缺失，使用默认值", zap.Int64("oid", oid), zap.Int("page", pn), zap.Int("size", size))
		}

		if first {
			stats.DeclaredTotal = page.DeclaredTotal
			stats.TotalPages = int((page.DeclaredTotal + int64(size) - 1) / int64(size))
			w.log.Info("开始遍历主评论",
				zap.Int64("oid", oid),
				zap.Int64("declared_total", page.DeclaredTotal),
				zap.Int("total_pages", stats.TotalPages),
			)
		} else if page.DeclaredTotal != lastTotal {
			w.log.Debug("声明总数发生变化", zap.Int64("from", lastTotal), zap.Int64("to", page.DeclaredTotal))
		}

		if err := visit(ctx, page); err != nil {
			return stats, err
		}

		lastSize, lastTotal = size, page.DeclaredTotal
		if int64(pn*size) >= page.DeclaredTotal {
			return stats, nil
		}
	}
}

// fetch 可重试错误在全局冷却后重试一次
func (w *RootWalker) fetch(ctx context.Context, oid int64, pn int) (*bilibili.Page, error) {
	page, err := w.fetcher.FetchRootPage(ctx, oid, pn, w.pageSize)
	if err == nil || !bilibili.IsTransient(err) {
		return page, err
	}

	w.log.Warn("主评论页请求失败，冷却后重试", zap.Int64("oid", oid), zap.Int("page", pn), zap.Error(err))
	if err := w.throttle.Cooldown(ctx); err != nil {
		return nil, err
	}
	if err := w.throttle.Acquire(ctx); err != nil {
		return nil, err
	}
	return w.fetcher.FetchRootPage(ctx, oid, pn, w.pageSize)
}
