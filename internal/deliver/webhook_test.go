package deliver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mvbarbosa/docpipe/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completedJob() *models.Job {
	now := time.Now().UnixNano()
	return &models.Job{
		ID:          "job-1",
		Filename:    "report.pdf",
		Origin:      "room:origin",
		EventRef:    "evt-42",
		Status:      models.StatusCompleted,
		RetryCount:  1,
		CompletedAt: &now,
		Result:      datatypes.JSON([]byte(`{"gpt":"summary"}`)),
	}
}

func TestWebhookDeliversCompletedJob(t *testing.T) {
	var got resultNotice
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client(), testLogger())
	require.NoError(t, wh.Deliver(context.Background(), completedJob()))

	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "room:origin", got.Origin)
	assert.Equal(t, "evt-42", got.EventRef)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "summary", got.Result["gpt"])
	assert.Empty(t, got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestWebhookDeliversFailedJob(t *testing.T) {
	var got resultNotice
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	job := completedJob()
	job.Status = models.StatusFailed
	job.Result = nil
	job.ErrorMessage = "all analysis providers failed"

	wh := NewWebhook(srv.URL, srv.Client(), testLogger())
	require.NoError(t, wh.Deliver(context.Background(), job))

	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "all analysis providers failed", got.Error)
	assert.Nil(t, got.Result)
}

func TestWebhookNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, srv.Client(), testLogger())
	err := wh.Deliver(context.Background(), completedJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "backend down")
}

func TestWebhookUnreachableEndpoint(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:1", &http.Client{Timeout: 100 * time.Millisecond}, testLogger())
	err := wh.Deliver(context.Background(), completedJob())
	require.Error(t, err)
}
