package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"vida-collector/internal/config"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

var conn driver.Conn

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Init 连接评论列存库，表结构由数仓侧维护
func Init(cfg *config.ClickHouseConfig) error {
	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}

	var err error
	conn, err = clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addrs,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: dialTimeout,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return fmt.Errorf("failed to open clickhouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("ClickHouse connected",
		zap.Strings("addrs", cfg.Addrs),
		zap.String("database", cfg.Database),
	)
	return nil
}

// Close 关闭连接
func Close() error {
	if conn == nil {
		return nil
	}
	logger.Info("ClickHouse connection closed")
	return conn.Close()
}

// Sink 把评论批量写入 ClickHouse，一个批次一次 INSERT
type Sink struct{}

// NewSink 创建写入器，需先调用 Init
func NewSink() *Sink {
	return &Sink{}
}

// Write 批次要么整体写入要么整体失败
func (s *Sink) Write(ctx context.Context, table string, records []model.Comment) error {
	if len(records) == 0 {
		return nil
	}
	if conn == nil {
		return fmt.Errorf("clickhouse connection not initialized")
	}
	query, err := insertQuery(table)
	if err != nil {
		return err
	}

	batch, err := conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer batch.Abort()

	for i := range records {
		if err := batch.AppendStruct(&records[i]); err != nil {
			return fmt.Errorf("append rpid %d: %w", records[i].Rpid, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	logger.Debug("ClickHouse batch inserted", zap.String("table", table), zap.Int("rows", len(records)))
	return nil
}

func insertQuery(table string) (string, error) {
	if !tablePattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return "INSERT INTO " + table, nil
}
