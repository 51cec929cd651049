package retry

// Decision is the outcome of applying the retry policy to a failed attempt.
type Decision int

const (
	// Requeue puts the job back in the pending pool with its retry counter
	// incremented. No per-job delay is applied; retries compete FIFO with
	// the rest of the queue.
	Requeue Decision = iota
	// PermanentFailure marks the job failed; it will not run again.
	PermanentFailure
)

func (d Decision) String() string {
	if d == Requeue {
		return "requeue"
	}
	return "permanent_failure"
}

// Policy decides whether a failed job gets another attempt.
type Policy struct {
	MaxRetries int
}

// Decide returns Requeue while the job still has retries left. retryCount is
// the number of failed attempts recorded so far.
func (p Policy) Decide(retryCount int) Decision {
	if retryCount < p.MaxRetries {
		return Requeue
	}
	return PermanentFailure
}
