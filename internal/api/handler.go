package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mvbarbosa/docpipe/common"
	"github.com/mvbarbosa/docpipe/internal/engine"
	"github.com/mvbarbosa/docpipe/internal/models"
	"github.com/mvbarbosa/docpipe/internal/store"
	"github.com/mvbarbosa/docpipe/middleware"
)

// Queue is the slice of the engine the ingest API needs.
type Queue interface {
	Enqueue(ctx context.Context, req engine.EnqueueRequest) (string, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	Stats(ctx context.Context) (map[models.Status]int64, error)
}

type Handler struct {
	queue Queue
}

func NewHandler(queue Queue) *Handler {
	return &Handler{queue: queue}
}

// EnqueueDocument accepts a document and queues it for analysis. The work is
// asynchronous, so the response is 202 with the job id to poll.
func (h *Handler) EnqueueDocument(c *gin.Context) {
	var req EnqueueDocumentRequest
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), engine.EnqueueRequest{
		Filename:  req.Filename,
		SourceURL: req.SourceURL,
		Origin:    req.Origin,
		EventRef:  req.EventRef,
		Data:      req.Data,
	})
	if err != nil {
		if errors.Is(err, engine.ErrEmptyPayload) {
			c.Error(common.Errf(http.StatusBadRequest, "document payload is empty"))
		} else {
			c.Error(common.Errf(http.StatusInternalServerError, "failed to enqueue document"))
		}
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, EnqueueDocumentResponse{JobID: jobID})
}

// GetJob returns the current state of one job.
func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid job id"})
		return
	}

	job, err := h.queue.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, common.APIError{Message: "job not found"})
			return
		}
		c.Error(common.Errf(http.StatusInternalServerError, "failed to get job"))
		c.Abort()
		return
	}

	resp, err := newJobResponse(job)
	if err != nil {
		c.Error(common.Errf(http.StatusInternalServerError, "failed to decode job result"))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats reports the per-status job counts.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		c.Error(common.Errf(http.StatusInternalServerError, "failed to get queue stats"))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, stats)
}
