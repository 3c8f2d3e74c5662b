package repository

import (
	"context"
	"encoding/json"
	"time"

	"vida-collector/internal/collector"
	"vida-collector/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.CrawlerTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.CrawlerTask, error) {
	var task model.CrawlerTask
	err := r.db.WithContext(ctx).First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List 分页查询任务，status 为空时不过滤
func (r *TaskRepository) List(ctx context.Context, skip, limit int, status string) ([]model.CrawlerTask, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.CrawlerTask{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.CrawlerTask
	err := query.Order("created_at DESC").Offset(skip).Limit(limit).Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// MarkFailed 分发失败等场景下直接置为失败
func (r *TaskRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.CrawlerTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.TaskFailed,
			"error_message": reason,
			"finished_at":   &now,
		}).Error
}

// MarkRunning 实现 collector.TaskStore
func (r *TaskRepository) MarkRunning(ctx context.Context, id int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.CrawlerTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.TaskRunning,
			"started_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Finish 实现 collector.TaskStore：回写终态并追加一条采集记录
func (r *TaskRepository) Finish(ctx context.Context, res *collector.Result) error {
	summary, err := buildSummary(res)
	if err != nil {
		return err
	}
	finished := res.FinishedAt

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":        res.Status,
			"total_count":   res.TotalCount,
			"success_count": res.SuccessCount,
			"error_message": res.ErrorMessage(),
			"finished_at":   &finished,
		}
		if res.Bvid != "" {
			updates["resource_id"] = res.Bvid
		}
		if err := tx.Model(&model.CrawlerTask{}).Where("id = ?", res.TaskID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Create(&model.CrawlerRecord{
			TaskID:     res.TaskID,
			ResourceID: res.Bvid,
			ParsedData: summary,
		}).Error
	})
}

type recordSummary struct {
	Bvid           string           `json:"bvid"`
	Oid            int64            `json:"oid"`
	Status         model.TaskStatus `json:"status"`
	TotalCount     int64            `json:"total_count"`
	SuccessCount   int64            `json:"success_count"`
	Dropped        int64            `json:"dropped"`
	Duplicates     int64            `json:"duplicates"`
	Discarded      int64            `json:"discarded"`
	RootPages      int              `json:"root_pages"`
	SkippedPages   int              `json:"skipped_pages"`
	ReplyFetches   int              `json:"reply_fetches"`
	TruncatedRoots int              `json:"truncated_roots"`
	Error          string           `json:"error,omitempty"`
	DurationMs     int64            `json:"duration_ms"`
}

func buildSummary(res *collector.Result) (string, error) {
	b, err := json.Marshal(recordSummary{
		Bvid:           res.Bvid,
		Oid:            res.Oid,
		Status:         res.Status,
		TotalCount:     res.TotalCount,
		SuccessCount:   res.SuccessCount,
		Dropped:        res.Dropped,
		Duplicates:     res.Duplicates,
		Discarded:      res.Discarded,
		RootPages:      res.RootPages,
		SkippedPages:   res.SkippedPages,
		ReplyFetches:   res.ReplyFetches,
		TruncatedRoots: res.TruncatedRoots,
		Error:          res.ErrorMessage(),
		DurationMs:     res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
