package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask is one run of a scheduled background job.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`

	Name      string    `gorm:"index" json:"name"`
	JobType   string    `json:"job_type"`
	RunsAt    time.Time `json:"runs_at"`
	Processed int64     `json:"processed"`
	Status    string    `gorm:"default:'completed'" json:"status"`
	Error     *string   `json:"error,omitempty"`
}

func (j *JobTask) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// RecordJobRun persists the outcome of a job run. Failures to record are logged only.
func RecordJobRun(db *gorm.DB, name string, jobType string, processed int64, runErr error) {
	jt := JobTask{
		Name:      name,
		JobType:   jobType,
		RunsAt:    time.Now().UTC(),
		Processed: processed,
		Status:    "completed",
	}
	if runErr != nil {
		msg := runErr.Error()
		jt.Status = "failed"
		jt.Error = &msg
	}
	if err := db.Create(&jt).Error; err != nil {
		log.Printf("[JobTask] could not record run of %s: %s\n", name, err.Error())
	}
}
