package bulk

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

var jobIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

type jobQueryRepo interface {
	GetByID(ctx context.Context, jobID, accountID string) (*domain.Job, error)
	ListByAccount(ctx context.Context, accountID string, page, limit int) ([]domain.Job, error)
}

type outcomeStore interface {
	DetailRows(ctx context.Context, accountID, jobID string, page, limit int) ([]domain.RecordOutcome, int64, error)
	Stats(ctx context.Context, jobID string) (domain.JobStats, error)
}

type BulkActionSummary struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Status       string    `json:"status"`
	ActionType   string    `json:"action_type"`
	FileType     string    `json:"file_type"`
	TotalRecords int64     `json:"total_records"`
	ScheduleTime time.Time `json:"schedule_time"`
	IsScheduled  bool      `json:"is_scheduled"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordOutcomeOutput struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	ErrorType string    `json:"error_type,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BulkActionDetailOutput struct {
	Rows  []RecordOutcomeOutput `json:"rows"`
	Total int64                 `json:"total"`
}

type BulkActionStatsOutput struct {
	JobID           string `json:"job_id"`
	TotalRecords    int64  `json:"total_records"`
	SuccessContacts int64  `json:"success_contacts"`
	FailedContacts  int64  `json:"failed_contacts"`
	SkippedContacts int64  `json:"skipped_contacts"`
}

type BulkActionQueries interface {
	List(ctx context.Context, accountID string, page, limit int) ([]BulkActionSummary, error)
	Detail(ctx context.Context, accountID, jobID string, page int) (BulkActionDetailOutput, error)
	Stats(ctx context.Context, accountID, jobID string) (BulkActionStatsOutput, error)
}

type bulkActionQueries struct {
	registry jobQueryRepo
	store    outcomeStore
}

func NewBulkActionQueries(registry jobQueryRepo, store outcomeStore) BulkActionQueries {
	return &bulkActionQueries{registry: registry, store: store}
}

func (q *bulkActionQueries) List(ctx context.Context, accountID string, page, limit int) ([]BulkActionSummary, error) {
	jobs, err := q.registry.ListByAccount(ctx, accountID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListJobs, err)
	}

	summaries := make([]BulkActionSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, BulkActionSummary{
			ID:           job.ID,
			FileName:     job.FileName,
			Status:       string(job.Status),
			ActionType:   string(job.ActionType),
			FileType:     string(job.FileType),
			TotalRecords: job.TotalRecords,
			ScheduleTime: job.ScheduleTime,
			IsScheduled:  job.IsScheduled,
			CreatedAt:    job.CreatedAt,
		})
	}
	return summaries, nil
}

func (q *bulkActionQueries) Detail(ctx context.Context, accountID, jobID string, page int) (BulkActionDetailOutput, error) {
	if _, err := q.checkJob(ctx, accountID, jobID); err != nil {
		return BulkActionDetailOutput{}, err
	}

	const pageSize = 10
	rows, total, err := q.store.DetailRows(ctx, accountID, jobID, page, pageSize)
	if err != nil {
		return BulkActionDetailOutput{}, fmt.Errorf("%w: %v", ErrJobDetail, err)
	}

	out := BulkActionDetailOutput{Total: total, Rows: make([]RecordOutcomeOutput, 0, len(rows))}
	for _, row := range rows {
		out.Rows = append(out.Rows, RecordOutcomeOutput{
			Name:      row.Name,
			Email:     row.Email,
			Phone:     row.Phone,
			Address:   row.Address,
			Status:    row.Status,
			ErrorType: string(row.ErrorType),
			Detail:    row.Detail,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (q *bulkActionQueries) Stats(ctx context.Context, accountID, jobID string) (BulkActionStatsOutput, error) {
	job, err := q.checkJob(ctx, accountID, jobID)
	if err != nil {
		return BulkActionStatsOutput{}, err
	}

	stats, err := q.store.Stats(ctx, jobID)
	if err != nil {
		return BulkActionStatsOutput{}, fmt.Errorf("%w: %v", ErrJobStats, err)
	}

	// The declared total comes from the job row; outcome-row counts lag it
	// while the job is still running.
	return BulkActionStatsOutput{
		JobID:           stats.JobID,
		TotalRecords:    job.TotalRecords,
		SuccessContacts: stats.SuccessContacts,
		FailedContacts:  stats.FailedContacts,
		SkippedContacts: stats.SkippedContacts,
	}, nil
}

func (q *bulkActionQueries) checkJob(ctx context.Context, accountID, jobID string) (*domain.Job, error) {
	if !jobIDPattern.MatchString(jobID) {
		return nil, ErrInvalidJobID
	}
	job, err := q.registry.GetByID(ctx, jobID, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrJobDetail, err)
	}
	return job, nil
}
