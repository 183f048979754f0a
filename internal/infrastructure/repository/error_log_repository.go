package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
	"github.com/crmkit/contact-ingest/internal/infrastructure/db/models"
)

type ErrorLogRepository struct {
	db *gorm.DB
}

func NewErrorLogRepository(db *gorm.DB) *ErrorLogRepository {
	return &ErrorLogRepository{db: db}
}

func (r *ErrorLogRepository) AddBulk(ctx context.Context, entries []domain.ErrorLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]models.ErrorLog, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.ErrorLog{
			JobID:       entry.JobID,
			AccountID:   entry.AccountID,
			Name:        entry.Name,
			Email:       entry.Email,
			Phone:       entry.Phone,
			Address:     entry.Address,
			ErrorType:   string(entry.ErrorType),
			ActionType:  string(entry.ActionType),
			ErrorDetail: entry.ErrorDetail,
		})
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("add error log entries: %w", err)
	}
	return nil
}

func (r *ErrorLogRepository) GetByID(ctx context.Context, id int64, accountID string) (domain.ErrorLogEntry, error) {
	var row models.ErrorLog
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND account_id = ?", id, accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrorLogEntry{}, domain.ErrErrorLogEntryNotFound
		}
		return domain.ErrorLogEntry{}, fmt.Errorf("get error log entry: %w", err)
	}

	return domain.ErrorLogEntry{
		ID:          row.ID,
		JobID:       row.JobID,
		AccountID:   row.AccountID,
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone,
		Address:     row.Address,
		ErrorType:   domain.ErrorType(row.ErrorType),
		ActionType:  domain.ActionType(row.ActionType),
		ErrorDetail: row.ErrorDetail,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (r *ErrorLogRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.ErrorLog{}, id).Error; err != nil {
		return fmt.Errorf("delete error log entry %d: %w", id, err)
	}
	return nil
}
