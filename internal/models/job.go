package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a job. Transitions:
// pending -> processing -> completed, or processing -> pending (retry),
// or processing -> failed (retries exhausted).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Statuses lists every lifecycle state.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// Job is one document waiting to be analyzed and delivered. The raw document
// bytes are never stored here; they live in the in-memory payload vault keyed
// by the job ID. Timestamps are unix nanoseconds so that claim ordering is
// exact across store backends.
type Job struct {
	ID           string `gorm:"type:text;primaryKey"`
	Filename     string `gorm:"type:text;not null"`
	SourceURL    string `gorm:"type:text"`
	Origin       string `gorm:"type:text;not null"`
	EventRef     string `gorm:"type:text"`
	Status       Status `gorm:"type:text;not null"`
	CreatedAt    int64  `gorm:"not null"`
	StartedAt    *int64
	CompletedAt  *int64
	Result       datatypes.JSON
	ErrorMessage string `gorm:"type:text"`
	RetryCount   int    `gorm:"not null;default:0"`
}

// NewJob builds a pending job with a fresh UUID. origin and eventRef are the
// references the deliverer needs to route the result back to its source.
func NewJob(filename, sourceURL, origin, eventRef string) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Filename:  filename,
		SourceURL: sourceURL,
		Origin:    origin,
		EventRef:  eventRef,
		Status:    StatusPending,
		CreatedAt: time.Now().UnixNano(),
	}
}

// ResultMap decodes the stored provider-name -> analysis-text map. Returns an
// empty map when no result has been recorded.
func (j *Job) ResultMap() (map[string]string, error) {
	if len(j.Result) == 0 {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(j.Result, &out); err != nil {
		return nil, fmt.Errorf("decode job result: %w", err)
	}
	return out, nil
}

// CreatedTime converts the creation timestamp back to a time.Time.
func (j *Job) CreatedTime() time.Time {
	return time.Unix(0, j.CreatedAt)
}
