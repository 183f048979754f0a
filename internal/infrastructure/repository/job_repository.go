package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
	"github.com/crmkit/contact-ingest/internal/infrastructure/db/models"
)

// JobRepository is the durable job registry. Only the batch processor
// mutates a job's status and resume index; the scheduler reads.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) (string, error) {
	row := toModel(job)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	job.ID = row.ID
	return row.ID, nil
}

// FindDue returns pending jobs whose schedule time has passed.
func (r *JobRepository) FindDue(ctx context.Context, now time.Time) ([]domain.Job, error) {
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND schedule_time <= ?", string(domain.StatusPending), now).
		Order("schedule_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find due jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, toDomain(row))
	}
	return jobs, nil
}

// Checkpoint persists the resume offset and status for a job. The guarded
// update keeps the index monotonic within a run and makes retried
// checkpoints at the same index a no-op.
func (r *JobRepository) Checkpoint(ctx context.Context, jobID string, index int64, status domain.JobStatus) error {
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND current_data_index <= ?", jobID, index).
		Updates(map[string]any{
			"current_data_index": index,
			"status":             string(status),
		}).Error
	if err != nil {
		return fmt.Errorf("checkpoint job %s at %d: %w", jobID, index, err)
	}
	return nil
}

func (r *JobRepository) Complete(ctx context.Context, jobID string, index int64) error {
	return r.Checkpoint(ctx, jobID, index, domain.StatusCompleted)
}

func (r *JobRepository) MarkError(ctx context.Context, jobID string, index int64, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND current_data_index <= ?", jobID, index).
		Updates(map[string]any{
			"current_data_index": index,
			"status":             string(domain.StatusError),
			"error_message":      reason,
		}).Error
	if err != nil {
		return fmt.Errorf("mark job %s errored: %w", jobID, err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, jobID, accountID string) (*domain.Job, error) {
	var row models.Job
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND account_id = ?", jobID, accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job by id: %w", err)
	}
	job := toDomain(row)
	return &job, nil
}

// ListByAccount returns an account's jobs newest first. The staged path and
// resume index are internal fields and stay out of the listing.
func (r *JobRepository) ListByAccount(ctx context.Context, accountID string, page, limit int) ([]domain.Job, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var rows []models.Job
	err := r.db.WithContext(ctx).
		Select("id", "file_name", "status", "action_type", "file_type",
			"total_records", "schedule_time", "is_scheduled", "account_id", "created_at", "updated_at").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs for account %s: %w", accountID, err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, toDomain(row))
	}
	return jobs, nil
}

func toModel(job *domain.Job) models.Job {
	var errMsg *string
	if job.ErrorMessage != "" {
		errMsg = &job.ErrorMessage
	}
	return models.Job{
		ID:               job.ID,
		FileName:         job.FileName,
		StagedPath:       job.StagedPath,
		Status:           string(job.Status),
		ActionType:       string(job.ActionType),
		FileType:         string(job.FileType),
		CurrentDataIndex: job.CurrentDataIndex,
		TotalRecords:     job.TotalRecords,
		ScheduleTime:     job.ScheduleTime,
		IsScheduled:      job.IsScheduled,
		AccountID:        job.AccountID,
		ErrorMessage:     errMsg,
	}
}

func toDomain(row models.Job) domain.Job {
	var errMsg string
	if row.ErrorMessage != nil {
		errMsg = *row.ErrorMessage
	}
	return domain.Job{
		ID:               row.ID,
		FileName:         row.FileName,
		StagedPath:       row.StagedPath,
		Status:           domain.JobStatus(row.Status),
		ActionType:       domain.ActionType(row.ActionType),
		FileType:         domain.FileType(row.FileType),
		CurrentDataIndex: row.CurrentDataIndex,
		TotalRecords:     row.TotalRecords,
		ScheduleTime:     row.ScheduleTime,
		IsScheduled:      row.IsScheduled,
		AccountID:        row.AccountID,
		ErrorMessage:     errMsg,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
