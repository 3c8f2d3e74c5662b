package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/api/handler"
	"vida-collector/internal/api/middleware"
	"vida-collector/internal/api/router"
	"vida-collector/internal/bilibili"
	"vida-collector/internal/collector"
	"vida-collector/internal/config"
	"vida-collector/internal/credential"
	"vida-collector/internal/infra/database"
	infraES "vida-collector/internal/infra/elasticsearch"
	infraKafka "vida-collector/internal/infra/kafka"
	infraRedis "vida-collector/internal/infra/redis"
	"vida-collector/internal/model"
	"vida-collector/internal/repository"
	"vida-collector/internal/service"
	"vida-collector/pkg/logger"

	_ "vida-collector/api/openapi"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Vida Collector API
// @version 1.0
// @description B站评论采集服务 API

// @host 127.0.0.1:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 输入格式: Bearer {token}

func main() {
	// 加载配置文件
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
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

	// 初始化任务库
	if err := database.Init(&cfg.Database, cfg.App.Mode); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis（Cookie 同步与任务进度）
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	// 初始化Kafka生产者（任务分发）
	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer infraKafka.CloseProducer()

	// 初始化 Elasticsearch（可选，失败则评论检索不可用）
	var searcher service.CommentSearcher
	if cfg.Search.Driver == "elasticsearch" {
		if err := infraES.Init(&cfg.Elasticsearch); err != nil {
			logger.Warn("Elasticsearch init failed, comment search disabled", zap.Error(err))
		} else {
			defer infraES.Close()
			if err := infraES.InitIndexes(); err != nil {
				logger.Warn("Elasticsearch index init failed", zap.Error(err))
			}
			searcher = searchES(infraES.CommentsIndex())
		}
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// 凭证：配置默认值，订阅刷新频道后再恢复 Redis 中最近一次刷新
	creds := credential.NewStore(credential.FromConfig(&cfg.Bilibili))
	cookieSync := credential.NewRedisSync(infraRedis.Get(), model.PlatformBilibili, logger.L())
	if ok, err := cookieSync.Sync(bgCtx, creds); err != nil {
		logger.Warn("Failed to sync cookie", zap.Error(err))
	} else if ok {
		logger.Info("Cookie restored from redis")
	}

	client, err := bilibili.NewClient(creds, bilibili.ClientOptions{
		BaseURL: cfg.Bilibili.BaseURL,
		Timeout: cfg.Bilibili.TimeoutDuration(),
		Proxy:   cfg.Bilibili.Proxy,
	})
	if err != nil {
		logger.Fatal("Failed to create bilibili client", zap.Error(err))
	}
	throttle := collector.NewThrottle(collector.ThrottleOptionsFrom(&cfg.Throttle))
	collectorOpts := collector.OptionsFrom(&cfg.Collector)

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// 初始化依赖（Repository -> Service -> Handler）
	taskRepo := repository.NewTaskRepository(database.Get())
	taskTopic := cfg.Kafka.Topic("tasks", infraKafka.DefaultTaskTopic)

	taskService := service.NewTaskService(
		taskRepo,
		func(ctx context.Context, msg *model.TaskMessage) error {
			return infraKafka.DispatchTask(ctx, taskTopic, msg)
		},
		infraRedis.NewProgressStore(infraRedis.Get()),
		nil,
	)
	crawlerService := service.NewCrawlerService(
		func(sink collector.Sink) *collector.Collector {
			return collector.New(client, throttle, sink, collectorOpts, logger.L())
		},
		creds,
		cookieSync,
	)
	searchService := service.NewSearchService(searcher)
	authService := service.NewAuthService(cfg.Auth.AdminKeyHash)

	authHandler := handler.NewAuthHandler(authService)
	crawlerHandler := handler.NewCrawlerHandler(taskService, crawlerService)
	searchHandler := handler.NewSearchHandler(searchService)

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler)
	r.GET("/", rootHandler)

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册业务路由
	router.Setup(r, authHandler, crawlerHandler, searchHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.Strings("kafka", cfg.Kafka.Brokers),
		zap.String("task_topic", taskTopic),
		zap.String("search", cfg.Search.Driver),
	)

	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// searchES 评论检索走 Elasticsearch
func searchES(index string) service.CommentSearcher {
	return func(ctx context.Context, bvid, query string, size int) (*dto.CommentSearchData, error) {
		items, total, err := infraES.SearchComments(ctx, index, bvid, query, size)
		if err != nil {
			return nil, err
		}
		return &dto.CommentSearchData{Items: items, Total: total}, nil
	}
}

// healthCheckHandler 健康检查接口，Redis 不可达时 Cookie 同步与进度查询都会失效
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := infraRedis.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"message":   "redis unavailable: " + err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   cfg.App.Name,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}

// rootHandler 根路径处理器
func rootHandler(c *gin.Context) {
	cfg := config.Get()

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome to %s API", cfg.App.Name),
		"project": cfg.App.Name,
		"version": cfg.App.Version,
		"mode":    cfg.App.Mode,
		"docs":    fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.App.Port),
	})
}
