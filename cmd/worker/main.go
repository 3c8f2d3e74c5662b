package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vida-collector/internal/bilibili"
	"vida-collector/internal/collector"
	"vida-collector/internal/config"
	"vida-collector/internal/credential"
	"vida-collector/internal/infra/clickhouse"
	"vida-collector/internal/infra/database"
	infraES "vida-collector/internal/infra/elasticsearch"
	infraKafka "vida-collector/internal/infra/kafka"
	infraMeili "vida-collector/internal/infra/meilisearch"
	infraMinio "vida-collector/internal/infra/minio"
	infraNats "vida-collector/internal/infra/nats"
	infraRedis "vida-collector/internal/infra/redis"
	"vida-collector/internal/model"
	"vida-collector/internal/repository"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database, cfg.App.Mode); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	if err := clickhouse.Init(&cfg.ClickHouse); err != nil {
		logger.Fatal("Failed to init clickhouse", zap.Error(err))
	}
	defer clickhouse.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	// 凭证：与 api 进程通过 Redis 保持同步
	creds := credential.NewStore(credential.FromConfig(&cfg.Bilibili))
	cookieSync := credential.NewRedisSync(infraRedis.Get(), model.PlatformBilibili, logger.L())
	if _, err := cookieSync.Sync(ctx, creds); err != nil {
		logger.Warn("Failed to sync cookie", zap.Error(err))
	}

	clientOpts := bilibili.ClientOptions{
		BaseURL: cfg.Bilibili.BaseURL,
		Timeout: cfg.Bilibili.TimeoutDuration(),
		Proxy:   cfg.Bilibili.Proxy,
	}
	if cfg.Archive.Enabled {
		if err := infraMinio.Init(&cfg.MinIO, cfg.Archive.Bucket); err != nil {
			logger.Fatal("Failed to init minio", zap.Error(err))
		}
		clientOpts.Archiver = infraMinio.NewArchiver(cfg.Archive.Bucket)
		clientOpts.OnArchiveError = func(ref bilibili.PageRef, err error) {
			logger.Warn("Failed to archive raw page",
				zap.String("kind", string(ref.Kind)),
				zap.Int64("oid", ref.Oid),
				zap.Int("page", ref.Page),
				zap.Error(err),
			)
		}
	}

	client, err := bilibili.NewClient(creds, clientOpts)
	if err != nil {
		logger.Fatal("Failed to create bilibili client", zap.Error(err))
	}

	sink := collector.NewMultiSink(clickhouse.NewSink(), logger.L(), searchSinks(cfg)...)
	publisher, closePublisher := eventPublisher(cfg)
	defer closePublisher()

	c := collector.New(
		client,
		collector.NewThrottle(collector.ThrottleOptionsFrom(&cfg.Throttle)),
		sink,
		collector.OptionsFrom(&cfg.Collector),
		logger.L(),
	).
		WithTaskStore(repository.NewTaskRepository(database.Get())).
		WithPublisher(publisher).
		WithProgress(infraRedis.NewProgressStore(infraRedis.Get()))

	concurrency := int64(cfg.Worker.Concurrency)
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(concurrency)
	timeout := cfg.Worker.TaskTimeoutDuration()

	handle := func(ctx context.Context, msg *model.TaskMessage) error {
		if msg.Platform != "" && msg.Platform != model.PlatformBilibili {
			return fmt.Errorf("unsupported platform: %s", msg.Platform)
		}
		// 并发已满时阻塞读取，形成背压
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer sem.Release(1)

			taskCtx, cancelTask := withTaskTimeout(ctx, timeout)
			defer cancelTask()

			res := c.Run(taskCtx, collector.Job{
				TaskID:    msg.TaskID,
				Input:     msg.InputContent,
				StartPage: msg.StartPage,
			})
			logger.Info("Crawler task finished",
				zap.Int64("task_id", res.TaskID),
				zap.String("bvid", res.Bvid),
				zap.String("status", string(res.Status)),
				zap.Int64("total", res.TotalCount),
				zap.Int64("success", res.SuccessCount),
				zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
			)
		}()
		return nil
	}

	taskTopic := cfg.Kafka.Topic("tasks", infraKafka.DefaultTaskTopic)
	logger.Info("Crawler worker started",
		zap.String("topic", taskTopic),
		zap.String("group", cfg.Worker.GroupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.Int64("concurrency", concurrency),
		zap.String("search", cfg.Search.Driver),
		zap.String("events", cfg.Events.Driver),
		zap.Bool("archive", cfg.Archive.Enabled),
	)

	infraKafka.StartTaskConsumer(ctx, cfg.Kafka.Brokers, taskTopic, cfg.Worker.GroupID, handle)

	// 等待进行中的任务回写终态
	_ = sem.Acquire(context.Background(), concurrency)
	logger.Info("Crawler worker stopped")
}

// searchSinks 按 search.driver 创建检索索引的旁路写入
func searchSinks(cfg *config.Config) []collector.Sink {
	switch cfg.Search.Driver {
	case "elasticsearch":
		if err := infraES.Init(&cfg.Elasticsearch); err != nil {
			logger.Warn("Elasticsearch init failed, index sync disabled", zap.Error(err))
			return nil
		}
		if err := infraES.InitIndexes(); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
		return []collector.Sink{infraES.NewCommentSink(infraES.CommentsIndex())}
	case "meilisearch":
		return []collector.Sink{infraMeili.NewIndexer(&cfg.Meilisearch)}
	default:
		return nil
	}
}

// eventPublisher 按 events.driver 创建完成事件发布器
func eventPublisher(cfg *config.Config) (collector.EventPublisher, func()) {
	switch cfg.Events.Driver {
	case "kafka":
		if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
			logger.Fatal("Failed to init kafka producer", zap.Error(err))
		}
		topic := cfg.Kafka.Topic("events", infraKafka.DefaultEventTopic)
		return infraKafka.NewPublisher(topic), func() { _ = infraKafka.CloseProducer() }
	case "nats":
		if err := infraNats.Init(&cfg.NATS); err != nil {
			logger.Fatal("Failed to init nats", zap.Error(err))
		}
		pub, err := infraNats.NewPublisher(cfg.NATS.Subject)
		if err != nil {
			logger.Fatal("Failed to create nats publisher", zap.Error(err))
		}
		return pub, infraNats.Close
	default:
		return nil, func() {}
	}
}

// withTaskTimeout timeout 不大于 0 时不限制单任务时长
func withTaskTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
