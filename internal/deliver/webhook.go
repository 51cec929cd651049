package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mvbarbosa/docpipe/internal/models"
)

// resultNotice is the JSON body posted to the origin webhook. Failed jobs
// carry the last error message instead of a result map.
type resultNotice struct {
	JobID       string            `json:"job_id"`
	Filename    string            `json:"filename"`
	Origin      string            `json:"origin"`
	EventRef    string            `json:"event_ref,omitempty"`
	Status      models.Status     `json:"status"`
	Result      map[string]string `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	RetryCount  int               `json:"retry_count"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Webhook delivers results by POSTing a JSON notice to a fixed endpoint.
type Webhook struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewWebhook(url string, client *http.Client, log *slog.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Webhook{url: url, client: client, log: log}
}

func (w *Webhook) Deliver(ctx context.Context, job *models.Job) error {
	notice := resultNotice{
		JobID:      job.ID,
		Filename:   job.Filename,
		Origin:     job.Origin,
		EventRef:   job.EventRef,
		Status:     job.Status,
		RetryCount: job.RetryCount,
	}
	if job.CompletedAt != nil {
		t := time.Unix(0, *job.CompletedAt)
		notice.CompletedAt = &t
	}
	if job.Status == models.StatusCompleted {
		result, err := job.ResultMap()
		if err != nil {
			return fmt.Errorf("deliver job %s: %w", job.ID, err)
		}
		notice.Result = result
	} else {
		notice.Error = job.ErrorMessage
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("deliver job %s: encode notice: %w", job.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("deliver job %s: build request: %w", job.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver job %s: %w", job.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("deliver job %s: webhook status %d: %s",
			job.ID, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	w.log.Debug("webhook delivery succeeded", "job_id", job.ID, "status", job.Status)
	return nil
}
