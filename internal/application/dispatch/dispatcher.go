package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/bryanwahyu/lexiguard/internal/application"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
)

// Dispatcher runs analysis jobs and enforces at most one in-flight job
// per fingerprint. It is the pipeline's only shared-mutation point; the
// registry is guarded by a single check-then-insert critical section.
type Dispatcher struct {
	Objects    domain.ObjectStore
	Extractor  domain.TextExtractor
	Matcher    domain.Matcher
	Summarizer domain.Summarizer
	Cache      domain.Cache
	History    history.Repository
	Clock      application.Clock

	// CacheTTL is the memo lifetime for completed results.
	CacheTTL time.Duration
	// MaxAttempts bounds summarization tries (initial + retries).
	MaxAttempts uint64
	// InitialBackoff seeds the exponential backoff between retries.
	InitialBackoff time.Duration
	// JobTimeout bounds a whole job, independent of any waiter.
	JobTimeout time.Duration

	mu       sync.Mutex
	inflight map[domain.Fingerprint]*Job
}

// Submit registers a job for fp, or joins the existing in-flight one.
// Returns owned=false when joining; joiners never appear as the job's
// owner for logging/accounting.
func (d *Dispatcher) Submit(fp domain.Fingerprint, fileKey, owner string) (*Job, bool) {
	d.mu.Lock()
	if d.inflight == nil {
		d.inflight = make(map[domain.Fingerprint]*Job)
	}
	if j, ok := d.inflight[fp]; ok {
		d.mu.Unlock()
		log.Printf("dispatch: joined in-flight job fingerprint=%s", fp)
		return j, false
	}
	j := newJob(fp, fileKey, owner, d.Clock.Now())
	d.inflight[fp] = j
	d.mu.Unlock()

	log.Printf("dispatch: job started fingerprint=%s owner=%s", fp, owner)
	go d.run(j)
	return j, true
}

// InFlight returns the number of jobs not yet in a terminal state.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// run drives a job to a terminal state with its own background context,
// so a disconnected waiter never cancels the underlying work.
func (d *Dispatcher) run(j *Job) {
	ctx := context.Background()
	if d.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.JobTimeout)
		defer cancel()
	}

	res, err := d.execute(ctx, j)
	if err != nil {
		log.Printf("dispatch: job failed fingerprint=%s owner=%s: %v", j.Fingerprint, j.Owner, err)
		j.fail(err)
		d.remove(j.Fingerprint)
		return
	}

	// Persist before registry cleanup: a waiter arriving between
	// completion and removal still observes via the registry handle.
	// Failed jobs are never cached, so the next request re-attempts.
	if cerr := d.Cache.Store(ctx, j.Fingerprint, *res, d.CacheTTL); cerr != nil {
		log.Printf("dispatch: cache store failed fingerprint=%s: %v", j.Fingerprint, cerr)
	}
	if herr := d.History.Append(ctx, &history.Record{
		ID:        history.RecordID(newRecordID()),
		Identity:  j.Owner,
		FileKey:   j.FileKey,
		Verdict:   res.Verdict,
		Timestamp: res.GeneratedAt,
	}); herr != nil {
		log.Printf("dispatch: history append failed fingerprint=%s: %v", j.Fingerprint, herr)
	}

	j.complete(res)
	d.remove(j.Fingerprint)
	log.Printf("dispatch: job complete fingerprint=%s duration=%s",
		j.Fingerprint, d.Clock.Now().Sub(j.SubmittedAt))
}

func newRecordID() string { return uuid.New().String() }

func (d *Dispatcher) remove(fp domain.Fingerprint) {
	d.mu.Lock()
	delete(d.inflight, fp)
	d.mu.Unlock()
}

// execute walks the state machine:
// QUEUED -> EXTRACTING -> MATCHING -> SUMMARIZING -> COMPLETE.
func (d *Dispatcher) execute(ctx context.Context, j *Job) (*domain.Result, error) {
	j.setState(domain.StateExtracting)
	data, err := d.Objects.Fetch(ctx, j.FileKey)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrExtractionFailed, j.FileKey, err)
	}

	// extraction is deterministic, so no retry on failure
	text, err := d.Extractor.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if err := domain.ValidateContent(text); err != nil {
		return nil, err
	}

	j.setState(domain.StateMatching)
	refs, err := d.Matcher.Match(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMatchingFailed, err)
	}

	j.setState(domain.StateSummarizing)
	verdict, err := d.summarize(ctx, text, refs)
	if err != nil {
		return nil, err
	}

	return &domain.Result{
		Verdict:     verdict,
		References:  refs,
		GeneratedAt: d.Clock.Now(),
	}, nil
}

// summarize retries transient upstream failures with exponential
// backoff, up to MaxAttempts total tries.
func (d *Dispatcher) summarize(ctx context.Context, text string, refs []domain.StatuteRef) (string, error) {
	attempts := d.MaxAttempts
	if attempts == 0 {
		attempts = 3
	}

	bo := backoff.NewExponentialBackOff()
	if d.InitialBackoff > 0 {
		bo.InitialInterval = d.InitialBackoff
	}

	var verdict string
	op := func() error {
		v, err := d.Summarizer.Summarize(ctx, text, refs)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		verdict = v
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamTransient) {
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		return "", err
	}
	return verdict, nil
}
