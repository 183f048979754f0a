package models

import "time"

type Job struct {
	ID               string    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	FileName         string    `gorm:"type:text;not null"`
	StagedPath       string    `gorm:"type:text;not null"`
	Status           string    `gorm:"type:text;not null;index:idx_jobs_due,priority:1"`
	ActionType       string    `gorm:"type:text;not null"`
	FileType         string    `gorm:"type:text;not null"`
	CurrentDataIndex int64     `gorm:"not null;default:0"`
	TotalRecords     int64     `gorm:"not null;default:0"`
	ScheduleTime     time.Time `gorm:"not null;index:idx_jobs_due,priority:2"`
	IsScheduled      bool      `gorm:"not null;default:false"`
	AccountID        string    `gorm:"type:text;not null;index"`
	ErrorMessage     *string   `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Job) TableName() string {
	return "jobs"
}
