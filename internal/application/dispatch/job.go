package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

// Job is one in-flight analysis. Owned by the dispatcher until it
// reaches a terminal state; the result then lives in cache/history.
type Job struct {
	Fingerprint domain.Fingerprint
	FileKey     string
	Owner       string
	SubmittedAt time.Time

	mu     sync.RWMutex
	state  domain.JobState
	result *domain.Result
	err    error
	done   chan struct{}
}

func newJob(fp domain.Fingerprint, fileKey, owner string, now time.Time) *Job {
	return &Job{
		Fingerprint: fp,
		FileKey:     fileKey,
		Owner:       owner,
		SubmittedAt: now,
		state:       domain.StateQueued,
		done:        make(chan struct{}),
	}
}

// State returns the current job state.
func (j *Job) State() domain.JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

func (j *Job) setState(s domain.JobState) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// complete records the result and wakes all waiters.
func (j *Job) complete(res *domain.Result) {
	j.mu.Lock()
	j.result = res
	j.state = domain.StateComplete
	j.mu.Unlock()
	close(j.done)
}

// fail records the terminal failure and wakes all waiters.
func (j *Job) fail(err error) {
	j.mu.Lock()
	j.err = err
	j.state = domain.StateFailed
	j.mu.Unlock()
	close(j.done)
}

// Wait blocks until the job reaches a terminal state or ctx expires.
// A waiter giving up does not cancel the job; it keeps running and
// populates the cache for subsequent callers.
func (j *Job) Wait(ctx context.Context) (*domain.Result, error) {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ErrWaitTimeout
		}
		return nil, ctx.Err()
	case <-j.done:
		j.mu.RLock()
		defer j.mu.RUnlock()
		if j.err != nil {
			return nil, j.err
		}
		return j.result, nil
	}
}
