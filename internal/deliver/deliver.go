package deliver

import (
	"context"

	"github.com/mvbarbosa/docpipe/internal/models"
)

// Deliverer posts a finished job's outcome back to its origin. Delivery
// failures are retried indefinitely by the dispatcher, so implementations
// should return an error for any transient condition rather than give up.
type Deliverer interface {
	Deliver(ctx context.Context, job *models.Job) error
}

// DelivererFunc adapts a plain function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, job *models.Job) error

func (f DelivererFunc) Deliver(ctx context.Context, job *models.Job) error {
	return f(ctx, job)
}
