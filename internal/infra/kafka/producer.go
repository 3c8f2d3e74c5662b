package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vida-collector/internal/config"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 默认 topic
const (
	DefaultTaskTopic  = "crawler_tasks"
	DefaultEventTopic = "crawler_video_data"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var producer messageWriter

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	producer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// DispatchTask 把新建的采集任务投递给 worker
func DispatchTask(ctx context.Context, topic string, msg *model.TaskMessage) error {
	if err := sendJSON(ctx, topic, fmt.Sprintf("task-%d", msg.TaskID), msg); err != nil {
		return fmt.Errorf("failed to dispatch crawler task: %w", err)
	}

	logger.Info("Crawler task dispatched",
		zap.Int64("task_id", msg.TaskID),
		zap.String("topic", topic),
	)
	return nil
}

// Publisher 通过 Kafka 发布任务完成事件
type Publisher struct {
	topic string
}

// NewPublisher 创建完成事件发布器
func NewPublisher(topic string) *Publisher {
	return &Publisher{topic: topic}
}

// PublishCompletion 以视频号为 key 发布完成事件，同一视频的事件落在同一分区
func (p *Publisher) PublishCompletion(ctx context.Context, ev *model.CompletionEvent) error {
	if err := sendJSON(ctx, p.topic, ev.VideoID, ev); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	logger.Info("Completion event published",
		zap.Int64("task_id", ev.TaskID),
		zap.String("video_id", ev.VideoID),
		zap.String("status", string(ev.Status)),
		zap.String("topic", p.topic),
	)
	return nil
}

func sendJSON(ctx context.Context, topic, key string, v any) error {
	if producer == nil {
		return fmt.Errorf("kafka producer not initialized")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
