package service

import (
	"context"
	"errors"
	"fmt"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/bilibili"
	"vida-collector/internal/collector"
	"vida-collector/internal/credential"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrUpstreamUnavailable = errors.New("B站评论接口暂不可用")
	ErrEmptyCookie         = errors.New("cookie 不能为空")
)

// CollectorFactory 为一次同步采集创建写入给定 sink 的采集器
type CollectorFactory func(sink collector.Sink) *collector.Collector

// CookiePublisher 把新 Cookie 同步给其他进程
type CookiePublisher interface {
	Publish(ctx context.Context, cookie string) error
}

type CrawlerService struct {
	newCollector CollectorFactory
	creds        *credential.Store
	cookieSync   CookiePublisher
}

// NewCrawlerService cookieSync 可为 nil（单进程部署）
func NewCrawlerService(newCollector CollectorFactory, creds *credential.Store, cookieSync CookiePublisher) *CrawlerService {
	return &CrawlerService{newCollector: newCollector, creds: creds, cookieSync: cookieSync}
}

// ScrapeComments 同步采集整棵评论树，结果直接返回不落库
func (s *CrawlerService) ScrapeComments(ctx context.Context, q *dto.ScrapeQuery) (*dto.CommentsData, error) {
	sink := &collector.MemorySink{}
	res := s.newCollector(sink).Run(ctx, collector.Job{Input: q.BvID, StartPage: q.StartPage})

	if res.Status == model.TaskFailed {
		switch {
		case errors.Is(res.Err, bilibili.ErrResolution):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, res.Err)
		case errors.Is(res.Err, collector.ErrFirstPageUnavailable), errors.Is(res.Err, collector.ErrWalkAborted):
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, res.Err)
		default:
			return nil, res.Err
		}
	}

	return &dto.CommentsData{
		Bvid:         res.Bvid,
		Oid:          res.Oid,
		Status:       res.Status,
		TotalCount:   res.TotalCount,
		SuccessCount: res.SuccessCount,
		Dropped:      res.Dropped,
		Duplicates:   res.Duplicates,
		SkippedPages: res.SkippedPages,
		Error:        res.ErrorMessage(),
		Comments:     sink.Records(),
	}, nil
}

// BVToAID BV 号转 AV 号
func (s *CrawlerService) BVToAID(bvid string) (*dto.BVToAIDData, error) {
	aid, err := bilibili.BVToAID(bvid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &dto.BVToAIDData{BvID: bvid, Aid: aid}, nil
}

// RefreshCookie 处理浏览器扩展推送的 Cookie；test 回调直接返回成功
func (s *CrawlerService) RefreshCookie(ctx context.Context, platform string, req *dto.CookieUpdateRequest) (*dto.MessageData, error) {
	if req.Test {
		return &dto.MessageData{Message: "Test successful"}, nil
	}
	if platform != model.PlatformBilibili {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	if req.Cookie == "" {
		return nil, ErrEmptyCookie
	}

	s.creds.UpdateCookie(req.Cookie)
	logger.Info("Cookie updated", zap.String("platform", platform), zap.String("sent_at", req.Timestamp))

	if s.cookieSync != nil {
		if err := s.cookieSync.Publish(ctx, req.Cookie); err != nil {
			return nil, fmt.Errorf("cookie updated locally but sync failed: %w", err)
		}
	}

	return &dto.MessageData{Message: platform + " Cookie updated successfully"}, nil
}
