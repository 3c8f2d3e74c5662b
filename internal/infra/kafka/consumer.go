package kafka

import (
	"context"
	"encoding/json"
	"time"

	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TaskHandler 处理一条采集任务消息
type TaskHandler func(ctx context.Context, msg *model.TaskMessage) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// StartTaskConsumer 启动任务消费者（阻塞，需在 goroutine 中运行）
// ctx 取消后会自动停止
func StartTaskConsumer(ctx context.Context, brokers []string, topic, groupID string, handler TaskHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	logger.Info("Kafka crawler task consumer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
	)
	consume(ctx, reader, handler)
}

func consume(ctx context.Context, reader messageReader, handler TaskHandler) {
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close kafka consumer", zap.Error(err))
		}
		logger.Info("Kafka crawler task consumer stopped")
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to read kafka message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var task model.TaskMessage
		if err := json.Unmarshal(msg.Value, &task); err != nil || task.TaskID == 0 {
			logger.Error("Discarding malformed crawler task",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			continue
		}

		logger.Info("Received crawler task",
			zap.Int64("task_id", task.TaskID),
			zap.String("platform", task.Platform),
		)

		if err := handler(ctx, &task); err != nil {
			logger.Error("Failed to handle crawler task",
				zap.Int64("task_id", task.TaskID),
				zap.Error(err),
			)
		}
	}
}
