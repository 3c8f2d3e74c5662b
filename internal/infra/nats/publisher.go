package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vida-collector/internal/config"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const streamName = "CRAWLER_EVENTS"

var conn *nats.Conn

// Init 连接 NATS 并确保完成事件所在的 JetStream 流存在
func Init(cfg *config.NATSConfig) error {
	var err error
	conn, err = nats.Connect(cfg.URL,
		nats.Name("vida-collector"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("failed to connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("failed to open jetstream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{streamSubjects(cfg.Subject)},
		Storage:  nats.FileStorage,
	})
	if err != nil && !strings.Contains(err.Error(), "already in use") {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}

	logger.Info("NATS connected",
		zap.String("url", cfg.URL),
		zap.String("subject", cfg.Subject),
	)
	return nil
}

// streamSubjects crawler.video.data -> crawler.>
func streamSubjects(subject string) string {
	if i := strings.Index(subject, "."); i > 0 {
		return subject[:i] + ".>"
	}
	return subject
}

// Publisher 通过 JetStream 发布任务完成事件
type Publisher struct {
	js      nats.JetStreamContext
	subject string
}

// NewPublisher 创建完成事件发布器，需先调用 Init
func NewPublisher(subject string) (*Publisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection not initialized")
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{js: js, subject: subject}, nil
}

// PublishCompletion 发布完成事件并等待服务端确认
func (p *Publisher) PublishCompletion(ctx context.Context, ev *model.CompletionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ack, err := p.js.Publish(p.subject, payload, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	logger.Info("Completion event published",
		zap.Int64("task_id", ev.TaskID),
		zap.String("subject", p.subject),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}

// Close 关闭连接
func Close() {
	if conn == nil {
		return
	}
	conn.Close()
	logger.Info("NATS connection closed")
}
