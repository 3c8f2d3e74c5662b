package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/bilibili"
	"vida-collector/internal/model"
	"vida-collector/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("任务不存在")
	ErrInvalidInput        = errors.New("无法识别的视频链接或BV号")
	ErrUnsupportedPlatform = errors.New("不支持的平台")
	ErrDispatchFailed      = errors.New("任务分发失败")
)

// TaskRepository 任务持久化，由 repository.TaskRepository 实现
type TaskRepository interface {
	Create(ctx context.Context, task *model.CrawlerTask) error
	GetByID(ctx context.Context, id int64) (*model.CrawlerTask, error)
	List(ctx context.Context, skip, limit int, status string) ([]model.CrawlerTask, int64, error)
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// TaskDispatcher 把任务投递给 worker
type TaskDispatcher func(ctx context.Context, msg *model.TaskMessage) error

// ProgressReader 读取运行中任务的进度
type ProgressReader interface {
	GetProgress(ctx context.Context, taskID int64) (*model.Progress, error)
}

type TaskService struct {
	repo       TaskRepository
	dispatch   TaskDispatcher
	progress   ProgressReader
	httpClient *http.Client
}

// NewTaskService progress 可为 nil
func NewTaskService(repo TaskRepository, dispatch TaskDispatcher, progress ProgressReader, httpClient *http.Client) *TaskService {
	return &TaskService{repo: repo, dispatch: dispatch, progress: progress, httpClient: httpClient}
}

// CreateTask 解析输入、落库并分发采集任务
func (s *TaskService) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskInfo, error) {
	platform := req.Platform
	if platform == "" {
		platform = model.PlatformBilibili
	}
	if platform != model.PlatformBilibili {
		return nil, ErrUnsupportedPlatform
	}

	bvid, err := bilibili.ExtractBVID(ctx, s.httpClient, req.InputContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	startPage := req.StartPage
	if startPage < 1 {
		startPage = 1
	}

	task := &model.CrawlerTask{
		TaskType:     model.TaskTypeComments,
		Platform:     platform,
		InputContent: req.InputContent,
		ResourceID:   bvid,
		StartPage:    startPage,
		Status:       model.TaskPending,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	msg := &model.TaskMessage{
		TaskID:       task.ID,
		Platform:     platform,
		InputContent: bvid,
		StartPage:    startPage,
	}
	if err := s.dispatch(ctx, msg); err != nil {
		logger.Error("Dispatch task failed", zap.Int64("task_id", task.ID), zap.Error(err))
		if markErr := s.repo.MarkFailed(ctx, task.ID, "dispatch failed: "+err.Error()); markErr != nil {
			logger.Warn("Mark task failed", zap.Int64("task_id", task.ID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	logger.Info("Crawler task dispatched",
		zap.Int64("task_id", task.ID),
		zap.String("bvid", bvid),
		zap.Int("start_page", startPage),
	)

	info := dto.NewTaskInfo(task)
	return &info, nil
}

// GetTask 查询任务，运行中的任务附带实时进度
func (s *TaskService) GetTask(ctx context.Context, id int64) (*dto.TaskInfo, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	info := dto.NewTaskInfo(task)
	if s.progress != nil && !task.Status.Terminal() {
		p, err := s.progress.GetProgress(ctx, id)
		if err != nil {
			logger.Debug("No progress for task", zap.Int64("task_id", id), zap.Error(err))
		} else {
			info.Progress = p
		}
	}
	return &info, nil
}

// ListTasks 分页查询任务
func (s *TaskService) ListTasks(ctx context.Context, q *dto.TaskListQuery) (*dto.TaskListData, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	tasks, total, err := s.repo.List(ctx, q.Skip, limit, q.Status)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TaskInfo, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskInfo(&tasks[i]))
	}
	return &dto.TaskListData{Items: items, Total: total}, nil
}
