package api

import (
	"time"

	"github.com/mvbarbosa/docpipe/internal/models"
)

// EnqueueDocumentRequest is the ingest payload. Data is base64 in the JSON
// body; origin and event_ref are opaque routing references echoed back by
// the delivery webhook.
type EnqueueDocumentRequest struct {
	Filename  string `json:"filename" validate:"required"`
	SourceURL string `json:"source_url"`
	Origin    string `json:"origin" validate:"required"`
	EventRef  string `json:"event_ref"`
	Data      []byte `json:"data" validate:"required"`
}

type EnqueueDocumentResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	Origin       string            `json:"origin"`
	EventRef     string            `json:"event_ref,omitempty"`
	Status       models.Status     `json:"status"`
	RetryCount   int               `json:"retry_count"`
	Result       map[string]string `json:"result,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

func newJobResponse(job *models.Job) (JobResponse, error) {
	result, err := job.ResultMap()
	if err != nil {
		return JobResponse{}, err
	}
	if len(result) == 0 {
		result = nil
	}

	resp := JobResponse{
		ID:           job.ID,
		Filename:     job.Filename,
		Origin:       job.Origin,
		EventRef:     job.EventRef,
		Status:       job.Status,
		RetryCount:   job.RetryCount,
		Result:       result,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedTime(),
	}
	if job.StartedAt != nil {
		t := time.Unix(0, *job.StartedAt)
		resp.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := time.Unix(0, *job.CompletedAt)
		resp.CompletedAt = &t
	}
	return resp, nil
}
