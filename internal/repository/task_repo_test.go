package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vida-collector/internal/collector"
	"vida-collector/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestBuildSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	res := &collector.Result{
		TaskID:       7,
		Bvid:         "BV18x411c74Q",
		Oid:          12345,
		Status:       model.TaskSucceeded,
		TotalCount:   70,
		SuccessCount: 40,
		Dropped:      1,
		RootPages:    2,
		ReplyFetches: 3,
		Err:          errors.New("sink failed"),
		StartedAt:    start,
		FinishedAt:   start.Add(1500 * time.Millisecond),
	}

	raw, err := buildSummary(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "BV18x411c74Q", got["bvid"])
	assert.Equal(t, "succeeded", got["status"])
	assert.EqualValues(t, 70, got["total_count"])
	assert.EqualValues(t, 40, got["success_count"])
	assert.EqualValues(t, 1, got["dropped"])
	assert.EqualValues(t, 1500, got["duration_ms"])
	assert.Equal(t, "sink failed", got["error"])
}

func TestBuildSummary_NoError(t *testing.T) {
	raw, err := buildSummary(&collector.Result{Status: model.TaskFailed})
	require.NoError(t, err)
	assert.NotContains(t, raw, `"error"`)
}

func newMockRepo(t *testing.T) (*TaskRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(true)
	return NewTaskRepository(db), mock
}

func finishedResult() *collector.Result {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &collector.Result{
		TaskID:       7,
		Bvid:         "BV18x411c74Q",
		Status:       model.TaskSucceeded,
		TotalCount:   70,
		SuccessCount: 70,
		StartedAt:    start,
		FinishedAt:   start.Add(time.Second),
	}
}

func TestTaskRepository_FinishWritesTaskAndRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "crawler_task" SET .*"resource_id"=.*"status"=.*"success_count"=.*"total_count"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "crawler_record"`).
		WithArgs(int64(7), "BV18x411c74Q", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Finish(context.Background(), finishedResult()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FinishRollsBackWhenRecordFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "crawler_task" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "crawler_record"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Finish(context.Background(), finishedResult())
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_MarkRunning(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE "crawler_task" SET .*"status"=`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRunning(context.Background(), 7))

	mock.ExpectExec(`UPDATE "crawler_task" SET .*"status"=`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkRunning(context.Background(), 404), gorm.ErrRecordNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "crawler_task" WHERE status = \$1`).
		WithArgs("running").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "crawler_task" WHERE status = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "platform", "status"}).
			AddRow(2, "bilibili", "running").
			AddRow(1, "bilibili", "running"))

	tasks, total, err := repo.List(context.Background(), 0, 20, "running")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, tasks, 2)
	assert.EqualValues(t, 2, tasks[0].ID)
	assert.Equal(t, model.TaskRunning, tasks[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListWithoutStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`^SELECT count\(\*\) FROM "crawler_task"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "crawler_task" ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tasks, total, err := repo.List(context.Background(), 0, 20, "")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
