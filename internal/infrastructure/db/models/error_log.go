package models

import "time"

type ErrorLog struct {
	ID          int64  `gorm:"primaryKey"`
	JobID       string `gorm:"type:uuid;index;not null"`
	AccountID   string `gorm:"type:text;index;not null"`
	Name        string `gorm:"type:text"`
	Email       string `gorm:"type:text"`
	Phone       string `gorm:"type:text"`
	Address     string `gorm:"type:text"`
	ErrorType   string `gorm:"type:text;not null"`
	ActionType  string `gorm:"type:text;not null"`
	ErrorDetail string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (ErrorLog) TableName() string {
	return "contact_error_logs"
}
