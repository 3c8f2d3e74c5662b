package clickhouse

import (
	"context"
	"testing"

	"vida-collector/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertQuery(t *testing.T) {
	q, err := insertQuery("bilibili_comments")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO bilibili_comments", q)

	q, err = insertQuery("ods.bilibili_comments")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO ods.bilibili_comments", q)

	for _, bad := range []string{"", "comments; DROP TABLE x", "1abc", "a.b.c", "a-b"} {
		_, err := insertQuery(bad)
		assert.Error(t, err, bad)
	}
}

func TestSinkWriteEmptyBatch(t *testing.T) {
	assert.NoError(t, NewSink().Write(context.Background(), "bilibili_comments", nil))
}

func TestSinkWriteWithoutConnection(t *testing.T) {
	err := NewSink().Write(context.Background(), "bilibili_comments", []model.Comment{{Rpid: 1}})
	assert.Error(t, err)
}
