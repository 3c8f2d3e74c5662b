package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	NATS          NATSConfig          `mapstructure:"nats"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Meilisearch   MeilisearchConfig   `mapstructure:"meilisearch"`
	ClickHouse    ClickHouseConfig    `mapstructure:"clickhouse"`
	Bilibili      BilibiliConfig      `mapstructure:"bilibili"`
	Throttle      ThrottleConfig      `mapstructure:"throttle"`
	Collector     CollectorConfig     `mapstructure:"collector"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	Search        SearchConfig        `mapstructure:"search"`
	Events        EventsConfig        `mapstructure:"events"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Log           LogConfig           `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 任务库（PostgreSQL）配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint  string   `mapstructure:"endpoint"`
	AccessKey string   `mapstructure:"access_key"`
	SecretKey string   `mapstructure:"secret_key"`
	UseSSL    bool     `mapstructure:"use_ssl"`
	Buckets   []string `mapstructure:"buckets"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// Topic 返回指定用途的 topic，未配置时使用默认值
func (k *KafkaConfig) Topic(name, fallback string) string {
	if t, ok := k.Topics[name]; ok && t != "" {
		return t
	}
	return fallback
}

// NATSConfig NATS配置（events.driver = nats 时使用）
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Hosts []string          `mapstructure:"hosts"`
	Index map[string]string `mapstructure:"index"`
}

// MeilisearchConfig Meilisearch配置（search.driver = meilisearch 时使用）
type MeilisearchConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"api_key"`
	Index  string `mapstructure:"index"`
}

// ClickHouseConfig 评论列存库配置
type ClickHouseConfig struct {
	Addrs       []string `mapstructure:"addrs"`
	Database    string   `mapstructure:"database"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	Table       string   `mapstructure:"table"`
	DialTimeout int      `mapstructure:"dial_timeout"` // 秒
}

// BilibiliConfig B站接口与默认凭证配置
type BilibiliConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Cookie         string `mapstructure:"cookie"`
	UserAgent      string `mapstructure:"user_agent"`
	Referer        string `mapstructure:"referer"`
	Origin         string `mapstructure:"origin"`
	AcceptLanguage string `mapstructure:"accept_language"`
	Proxy          string `mapstructure:"proxy"`
	Timeout        int    `mapstructure:"timeout"` // 秒
}

// TimeoutDuration 返回单次请求超时时间
func (b *BilibiliConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// ThrottleConfig 请求节流配置（单位：秒）
type ThrottleConfig struct {
	RootBase      float64 `mapstructure:"root_base"`
	RootFloor     float64 `mapstructure:"root_floor"`
	RootCeiling   float64 `mapstructure:"root_ceiling"`
	ReplyDelay    float64 `mapstructure:"reply_delay"`
	Cooldown      float64 `mapstructure:"cooldown"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// CollectorConfig 评论采集流水线配置
type CollectorConfig struct {
	PageSize         int    `mapstructure:"page_size"`
	BatchSize        int    `mapstructure:"batch_size"`
	ReplyConcurrency int    `mapstructure:"reply_concurrency"`
	Table            string `mapstructure:"table"`
}

// WorkerConfig 任务执行器配置
type WorkerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	GroupID     string `mapstructure:"group_id"`
	TaskTimeout int    `mapstructure:"task_timeout"` // 分钟
}

// TaskTimeoutDuration 返回单个任务的最长执行时间
func (w *WorkerConfig) TaskTimeoutDuration() time.Duration {
	return time.Duration(w.TaskTimeout) * time.Minute
}

// ArchiveConfig 原始分页归档配置
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
}

// SearchConfig 评论检索索引配置：elasticsearch | meilisearch | none
type SearchConfig struct {
	Driver string `mapstructure:"driver"`
}

// EventsConfig 完成事件总线配置：kafka | nats | none
type EventsConfig struct {
	Driver string `mapstructure:"driver"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// ExpireDuration 返回过期时间
func (j *JWTConfig) ExpireDuration() time.Duration {
	return time.Duration(j.ExpireHours) * time.Hour
}

// AuthConfig 服务令牌签发配置
type AuthConfig struct {
	AdminKeyHash string `mapstructure:"admin_key_hash"` // bcrypt
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // 天
	Compress   bool   `mapstructure:"compress"`
}

// 全局配置实例
var globalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vida-collector")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8000)

	v.SetDefault("bilibili.base_url", "https://api.bilibili.com")
	v.SetDefault("bilibili.referer", "https://www.bilibili.com/")
	v.SetDefault("bilibili.origin", "https://www.bilibili.com")
	v.SetDefault("bilibili.accept_language", "zh-CN,zh;q=0.9,en;q=0.8")
	v.SetDefault("bilibili.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	v.SetDefault("bilibili.timeout", 15)

	v.SetDefault("throttle.root_base", 1.5)
	v.SetDefault("throttle.root_floor", 1.5)
	v.SetDefault("throttle.root_ceiling", 3.0)
	v.SetDefault("throttle.reply_delay", 0.2)
	v.SetDefault("throttle.cooldown", 3.0)
	v.SetDefault("throttle.rate_per_second", 5.0)
	v.SetDefault("throttle.burst", 1)

	v.SetDefault("collector.page_size", 20)
	v.SetDefault("collector.batch_size", 500)
	v.SetDefault("collector.reply_concurrency", 4)
	v.SetDefault("collector.table", "bilibili_comments")

	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.group_id", "vida-collector-worker")
	v.SetDefault("worker.task_timeout", 120)

	v.SetDefault("clickhouse.database", "ods")
	v.SetDefault("clickhouse.dial_timeout", 10)

	v.SetDefault("archive.bucket", "crawler-raw")
	v.SetDefault("search.driver", "elasticsearch")
	v.SetDefault("events.driver", "kafka")
	v.SetDefault("nats.subject", "crawler.video.data")
	v.SetDefault("meilisearch.index", "bilibili_comments")

	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 读取环境变量，例如 BILIBILI_COOKIE 覆盖 bilibili.cookie
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg

	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded, please call Load() first")
	}
	return globalConfig
}

// Set 直接设置全局配置（测试与嵌入场景使用）
func Set(cfg *Config) {
	globalConfig = cfg
}

// GetApp 获取应用配置
func GetApp() *AppConfig {
	return &Get().App
}

// GetBilibili 获取B站配置
func GetBilibili() *BilibiliConfig {
	return &Get().Bilibili
}

// GetElasticsearch 获取Elasticsearch配置
func GetElasticsearch() *ElasticsearchConfig {
	return &Get().Elasticsearch
}

// GetJWT 获取JWT配置
func GetJWT() *JWTConfig {
	return &Get().JWT
}

// GetAuth 获取服务令牌配置
func GetAuth() *AuthConfig {
	return &Get().Auth
}

// GetLog 获取日志配置
func GetLog() *LogConfig {
	return &Get().Log
}
