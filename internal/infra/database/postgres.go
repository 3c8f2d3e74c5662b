package database

import (
	"fmt"
	"time"

	"vida-collector/internal/config"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化任务库连接，debug 模式下打印 SQL
func Init(cfg *config.DatabaseConfig, mode string) error {
	level := gormlogger.Warn
	if mode == "debug" {
		level = gormlogger.Info
	}

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("failed to connect task database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping task database: %w", err)
	}

	logger.Info("Task database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return nil
}

// Migrate 迁移任务表与采集记录表
func Migrate() error {
	if err := DB.AutoMigrate(&model.CrawlerTask{}, &model.CrawlerRecord{}); err != nil {
		return fmt.Errorf("failed to migrate crawler tables: %w", err)
	}
	logger.Info("Crawler tables migrated")
	return nil
}

// Close 关闭数据库连接
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	logger.Info("Task database connection closed")
	return sqlDB.Close()
}

// Get 获取数据库实例
func Get() *gorm.DB {
	return DB
}
