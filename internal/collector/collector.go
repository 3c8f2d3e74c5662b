package collector

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vida-collector/internal/bilibili"
	"vida-collector/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const finishTimeout = 10 * time.Second

// TaskStore 任务状态持久化
type TaskStore interface {
	MarkRunning(ctx context.Context, taskID int64) error
	Finish(ctx context.Context, res *Result) error
}

// EventPublisher 完成事件发布
type EventPublisher interface {
	PublishCompletion(ctx context.Context, ev *model.CompletionEvent) error
}

// ProgressReporter 运行进度上报
type ProgressReporter interface {
	ReportProgress(ctx context.Context, taskID int64, p model.Progress) error
}

// Job 一次采集请求
type Job struct {
	TaskID int64
	// Input BV 号、视频链接或短链
	Input     string
	StartPage int
}

// Result 任务执行结果
type Result struct {
	TaskID int64
	Bvid   string
	Oid    int64
	Status model.TaskStatus
	// TotalCount 通过校验的记录数，SuccessCount 实际写入成功的记录数
	TotalCount     int64
	SuccessCount   int64
	Dropped        int64
	Duplicates     int64
	Discarded      int64
	RootPages      int
	SkippedPages   int
	ReplyFetches   int
	TruncatedRoots int
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// ErrorMessage 失败原因或部分失败说明
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Event 转换成完成事件
func (r *Result) Event() *model.CompletionEvent {
	return &model.CompletionEvent{
		TaskID:       r.TaskID,
		Platform:     model.PlatformBilibili,
		VideoID:      r.Bvid,
		DataType:     model.DataTypeComment,
		Count:        r.TotalCount,
		SuccessCount: r.SuccessCount,
		Status:       r.Status,
		Timestamp:    r.FinishedAt.Unix(),
	}
}

// Options 采集参数
type Options struct {
	PageSize         int
	BatchSize        int
	ReplyConcurrency int
	Table            string
	// HTTPClient 用于解析短链
	HTTPClient *http.Client
	Now        func() time.Time
}

// Collector 把视频的完整评论树采集、标准化并批量写入存储
type Collector struct {
	walker     *RootWalker
	expander   *ReplyExpander
	normalizer *Normalizer
	sink       Sink
	opts       Options
	log        *zap.Logger

	tasks    TaskStore
	events   EventPublisher
	progress ProgressReporter
}

// New 创建采集器，throttle 应在同一上游的所有任务间共享
func New(fetcher PageFetcher, throttle *Throttle, sink Sink, opts Options, log *zap.Logger) *Collector {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.ReplyConcurrency <= 0 {
		opts.ReplyConcurrency = 1
	}
	if opts.Table == "" {
		opts.Table = "bilibili_comments"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Collector{
		walker:     NewRootWalker(fetcher, throttle, opts.PageSize, log),
		expander:   NewReplyExpander(fetcher, throttle, opts.PageSize, log),
		normalizer: NewNormalizer(opts.Now),
		sink:       sink,
		opts:       opts,
		log:        log,
		tasks:      nopTaskStore{},
		events:     nopPublisher{},
		progress:   nopProgress{},
	}
}

// WithTaskStore 设置任务状态存储
func (c *Collector) WithTaskStore(s TaskStore) *Collector {
	if s != nil {
		c.tasks = s
	}
	return c
}

// WithPublisher 设置完成事件发布器
func (c *Collector) WithPublisher(p EventPublisher) *Collector {
	if p != nil {
		c.events = p
	}
	return c
}

// WithProgress 设置进度上报
func (c *Collector) WithProgress(p ProgressReporter) *Collector {
	if p != nil {
		c.progress = p
	}
	return c
}

// Run 执行一次采集任务，结果状态总会回写到任务存储（TaskID 为 0 时跳过）
func (c *Collector) Run(ctx context.Context, job Job) *Result {
	res := &Result{TaskID: job.TaskID, StartedAt: c.opts.Now()}
	log := c.log.With(zap.Int64("task_id", job.TaskID))

	if job.TaskID != 0 {
		if err := c.tasks.MarkRunning(ctx, job.TaskID); err != nil {
			log.Warn("更新任务状态失败", zap.Error(err))
		}
	}

	c.collect(ctx, job, res, log)
	res.FinishedAt = c.opts.Now()
	c.finish(ctx, res, log)
	return res
}

func (c *Collector) collect(ctx context.Context, job Job, res *Result, log *zap.Logger) {
	fail := func(err error) {
		res.Status = model.TaskFailed
		res.Err = err
	}

	bvid, err := bilibili.ExtractBVID(ctx, c.opts.HTTPClient, job.Input)
	if err != nil {
		log.Error("无法解析视频标识", zap.String("input", job.Input), zap.Error(err))
		fail(err)
		return
	}
	oid, err := bilibili.BVToAID(bvid)
	if err != nil {
		log.Error("BV号转换失败", zap.String("bvid", bvid), zap.Error(err))
		fail(err)
		return
	}
	res.Bvid, res.Oid = bvid, oid
	log = log.With(zap.String("bvid", bvid), zap.Int64("oid", oid))
	ctx = bilibili.WithTrace(ctx, bilibili.Trace{TaskID: job.TaskID, Bvid: bvid})

	bw := NewBatchWriter(c.sink, c.opts.Table, c.opts.BatchSize, log)
	seen := make(map[int64]struct{})
	var totalPages int

	stats, walkErr := c.walker.Walk(ctx, oid, job.StartPage, func(ctx context.Context, page *bilibili.Page) error {
		records, err := c.collectPage(ctx, bvid, oid, page, res, seen, log)
		if err != nil {
			return err
		}
		for i := range records {
			bw.Add(ctx, records[i])
		}
		res.TotalCount += int64(len(records))

		if totalPages == 0 && page.Size > 0 {
			totalPages = int((page.DeclaredTotal + int64(page.Size) - 1) / int64(page.Size))
		}
		p := model.Progress{Page: page.Num, TotalPages: totalPages, Collected: res.TotalCount, Written: bw.Written()}
		if job.TaskID != 0 {
			if err := c.progress.ReportProgress(ctx, job.TaskID, p); err != nil {
				log.Debug("进度上报失败", zap.Error(err))
			}
		}
		return nil
	})
	res.RootPages = stats.Pages
	res.SkippedPages += stats.SkippedPages

	switch {
	case ctx.Err() != nil || isContextErr(walkErr):
		res.Discarded = int64(bw.Discard())
		if walkErr == nil {
			walkErr = ctx.Err()
		}
		log.Warn("任务被取消，丢弃未写入的记录", zap.Int64("discarded", res.Discarded), zap.Error(walkErr))
		fail(walkErr)
	case errors.Is(walkErr, ErrFirstPageUnavailable):
		fail(walkErr)
	case errors.Is(walkErr, ErrWalkAborted) && stats.Pages == 0:
		fail(walkErr)
	default:
		bw.Flush(ctx)
		res.Status = model.TaskSucceeded
		res.Err = walkErr
		if walkErr == nil && bw.Err() != nil {
			res.Err = bw.Err()
		}
	}
	res.SuccessCount = bw.Written()
}

// collectPage 并发展开本页所有主评论的子评论，全部完成后按“主评论、其子评论”的顺序输出
func (c *Collector) collectPage(ctx context.Context, bvid string, oid int64, page *bilibili.Page, res *Result, seen map[int64]struct{}, log *zap.Logger) ([]model.Comment, error) {
	items := page.Items
	expansions := make([]*Expansion, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.ReplyConcurrency)
	for i := range items {
		// 时间序分页下已采集过的主评论重新出现，不再展开其子评论
		if _, dup := seen[items[i].ID()]; dup || items[i].ID() == 0 {
			expansions[i] = &Expansion{}
			continue
		}
		g.Go(func() error {
			exp, err := c.expander.Expand(gctx, oid, &items[i])
			expansions[i] = exp
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Comment, 0, len(items))
	emit := func(raw *bilibili.RawComment, pos Position) {
		rec, err := c.normalizer.Normalize(raw, pos)
		if err != nil {
			res.Dropped++
			log.Debug("丢弃无效记录", zap.Error(err))
			return
		}
		if _, dup := seen[rec.Rpid]; dup {
			res.Duplicates++
			return
		}
		seen[rec.Rpid] = struct{}{}
		out = append(out, *rec)
	}

	for i := range items {
		root := &items[i]
		emit(root, Position{Bvid: bvid, Oid: oid})

		exp := expansions[i]
		res.ReplyFetches += exp.Fetches
		res.SkippedPages += exp.Skipped
		if exp.Truncated {
			res.TruncatedRoots++
		}
		rootID := root.ID()
		for j := range exp.Replies {
			emit(&exp.Replies[j], Position{Bvid: bvid, Oid: oid, RootID: rootID, IsSub: true})
		}
	}
	return out, nil
}

func (c *Collector) finish(ctx context.Context, res *Result, log *zap.Logger) {
	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.Int64("total_count", res.TotalCount),
		zap.Int64("success_count", res.SuccessCount),
		zap.Int64("dropped", res.Dropped),
		zap.Int("root_pages", res.RootPages),
		zap.Int("skipped_pages", res.SkippedPages),
		zap.Int("truncated_roots", res.TruncatedRoots),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	}
	if res.Err != nil {
		fields = append(fields, zap.Error(res.Err))
	}
	log.Info("采集任务结束", fields...)

	if res.TaskID == 0 {
		return
	}

	// 任务被取消时仍需回写终态
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	if err := c.tasks.Finish(fctx, res); err != nil {
		log.Error("回写任务结果失败", zap.Error(err))
	}
	if err := c.events.PublishCompletion(fctx, res.Event()); err != nil {
		log.Error("发布完成事件失败", zap.Error(err))
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type nopTaskStore struct{}

func (nopTaskStore) MarkRunning(context.Context, int64) error { return nil }
func (nopTaskStore) Finish(context.Context, *Result) error    { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishCompletion(context.Context, *model.CompletionEvent) error { return nil }

type nopProgress struct{}

func (nopProgress) ReportProgress(context.Context, int64, model.Progress) error { return nil }
