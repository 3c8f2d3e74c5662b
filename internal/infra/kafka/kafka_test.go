package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"vida-collector/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func withFakeProducer(t *testing.T) *fakeWriter {
	t.Helper()
	w := &fakeWriter{}
	prev := producer
	producer = w
	t.Cleanup(func() { producer = prev })
	return w
}

func TestPublisher_PublishCompletion(t *testing.T) {
	w := withFakeProducer(t)

	ev := &model.CompletionEvent{
		TaskID:       7,
		Platform:     model.PlatformBilibili,
		VideoID:      "BV18x411c74Q",
		DataType:     model.DataTypeComment,
		Count:        70,
		SuccessCount: 70,
		Status:       model.TaskSucceeded,
		Timestamp:    1700000000,
	}
	require.NoError(t, NewPublisher(DefaultEventTopic).PublishCompletion(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, DefaultEventTopic, w.msgs[0].Topic)
	assert.Equal(t, "BV18x411c74Q", string(w.msgs[0].Key))
	assert.JSONEq(t, `{
		"task_id": 7,
		"platform": "bilibili",
		"video_id": "BV18x411c74Q",
		"data_type": "comment",
		"count": 70,
		"success_count": 70,
		"status": "succeeded",
		"timestamp": 1700000000
	}`, string(w.msgs[0].Value))
}

func TestDispatchTask(t *testing.T) {
	w := withFakeProducer(t)

	msg := &model.TaskMessage{TaskID: 3, Platform: "bilibili", InputContent: "BV18x411c74Q", StartPage: 1}
	require.NoError(t, DispatchTask(context.Background(), DefaultTaskTopic, msg))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "task-3", string(w.msgs[0].Key))
	var got model.TaskMessage
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, *msg, got)
}

func TestSendWithoutProducer(t *testing.T) {
	prev := producer
	producer = nil
	defer func() { producer = prev }()

	err := NewPublisher(DefaultEventTopic).PublishCompletion(context.Background(), &model.CompletionEvent{})
	assert.Error(t, err)
}

type fakeReader struct {
	msgs   []kafka.Message
	closed bool
	cancel context.CancelFunc
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Value: []byte(`{"task_id": 1, "platform": "bilibili", "input_content": "BV18x411c74Q"}`)},
			{Value: []byte(`not json`)},
			{Value: []byte(`{"task_id": 0}`)},
			{Value: []byte(`{"task_id": 2, "platform": "bilibili", "input_content": "BV17x411w7KC"}`)},
		},
	}

	var handled []int64
	consume(ctx, reader, func(_ context.Context, msg *model.TaskMessage) error {
		handled = append(handled, msg.TaskID)
		if msg.TaskID == 1 {
			return errors.New("handler failure does not stop the loop")
		}
		return nil
	})

	assert.Equal(t, []int64{1, 2}, handled)
	assert.True(t, reader.closed)
}
