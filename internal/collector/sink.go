package collector

import (
	"context"
	"sync"

	"vida-collector/internal/model"

	"go.uber.org/zap"
)

// Sink 批量写入标准化评论的存储
type Sink interface {
	Write(ctx context.Context, table string, records []model.Comment) error
}

// MultiSink 依次写入主存储与辅助存储，只有主存储失败才算写入失败
type MultiSink struct {
	primary   Sink
	secondary []Sink
	log       *zap.Logger
}

// NewMultiSink 创建组合存储
func NewMultiSink(primary Sink, log *zap.Logger, secondary ...Sink) *MultiSink {
	return &MultiSink{primary: primary, secondary: secondary, log: log}
}

func (m *MultiSink) Write(ctx context.Context, table string, records []model.Comment) error {
	if err := m.primary.Write(ctx, table, records); err != nil {
		return err
	}
	for _, s := range m.secondary {
		if err := s.Write(ctx, table, records); err != nil {
			m.log.Warn("辅助存储写入失败", zap.String("table", table), zap.Int("count", len(records)), zap.Error(err))
		}
	}
	return nil
}

// MemorySink 内存存储，用于同步查询接口与测试
type MemorySink struct {
	mu      sync.Mutex
	records []model.Comment
	batches int
	// Err 非空时每次写入都失败
	Err error
}

func (s *MemorySink) Write(_ context.Context, _ string, records []model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.records = append(s.records, records...)
	s.batches++
	return nil
}

// Records 已写入的记录副本
func (s *MemorySink) Records() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Comment, len(s.records))
	copy(out, s.records)
	return out
}

// Batches 成功写入的批次数
func (s *MemorySink) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// BatchWriter 累积记录，达到批大小后写入；批次失败只记录日志，不中断采集
type BatchWriter struct {
	sink  Sink
	table string
	size  int
	log   *zap.Logger

	buf           []model.Comment
	written       int64
	failed        int64
	failedBatches int
	lastErr       error
}

// NewBatchWriter 创建批量写入器
func NewBatchWriter(sink Sink, table string, size int, log *zap.Logger) *BatchWriter {
	if size <= 0 {
		size = 500
	}
	return &BatchWriter{
		sink:  sink,
		table: table,
		size:  size,
		log:   log,
		buf:   make([]model.Comment, 0, size),
	}
}

// Add 追加一条记录，缓冲区满时触发写入
func (b *BatchWriter) Add(ctx context.Context, c model.Comment) {
	b.buf = append(b.buf, c)
	if len(b.buf) >= b.size {
		b.Flush(ctx)
	}
}

// Flush 写入缓冲区中的剩余记录
func (b *BatchWriter) Flush(ctx context.Context) {
	if len(b.buf) == 0 {
		return
	}
	batch := b.buf
	b.buf = make([]model.Comment, 0, b.size)

	if err := b.sink.Write(ctx, b.table, batch); err != nil {
		b.failed += int64(len(batch))
		b.failedBatches++
		b.lastErr = err
		b.log.Error("批量写入失败",
			zap.String("table", b.table),
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}
	b.written += int64(len(batch))
	b.log.Debug("批量写入成功", zap.String("table", b.table), zap.Int("count", len(batch)))
}

// Discard 丢弃未写入的缓冲记录，返回丢弃条数
func (b *BatchWriter) Discard() int {
	n := len(b.buf)
	b.buf = b.buf[:0]
	return n
}

// Written 成功写入条数
func (b *BatchWriter) Written() int64 { return b.written }

// Failed 写入失败条数
func (b *BatchWriter) Failed() int64 { return b.failed }

// Err 最近一次批次写入错误
func (b *BatchWriter) Err() error { return b.lastErr }
