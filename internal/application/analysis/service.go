package analysis

import (
	"context"
	"log"
	"time"

	"github.com/bryanwahyu/lexiguard/internal/application/dispatch"
	"github.com/bryanwahyu/lexiguard/internal/application/uploads"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
	"github.com/bryanwahyu/lexiguard/internal/domain/identity"
)

// Service implements the status-endpoint use case: gate, dedup,
// dispatch and memoize the document analysis pipeline.
// Safe for concurrent use.
type Service struct {
	Pending *uploads.Pending
	Objects domain.ObjectStore
	Cache   domain.Cache
	Jobs    *dispatch.Dispatcher
	History history.Repository

	// WaitTimeout bounds how long one request waits for a job. On
	// expiry the request fails retryable while the job keeps running.
	WaitTimeout time.Duration
}

// Outcome of a status check.
type Outcome struct {
	Result domain.Result
	Cached bool
}

// Check runs one request lifecycle: pending upload -> validation ->
// cache lookup -> dispatch -> await terminal state. Validation fails
// closed before any job is dispatched or cache consulted.
func (s *Service) Check(ctx context.Context, ident identity.Identity) (*Outcome, error) {
	fileKey, ok := s.Pending.Latest(ident.Key())
	if !ok {
		return nil, domain.ErrNoPendingDocument
	}

	if err := domain.ValidateFileKey(fileKey); err != nil {
		return nil, err
	}

	size, err := s.Objects.Stat(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateObjectSize(size); err != nil {
		return nil, err
	}

	fp := FingerprintOf(fileKey)

	entry, hit, err := s.Cache.Lookup(ctx, fp)
	if err != nil {
		// degrade to a miss; the cache is an optimization, not a dependency
		log.Printf("analysis: cache lookup error fingerprint=%s: %v", fp, err)
	} else if hit {
		log.Printf("analysis: cache hit fingerprint=%s", fp)
		return &Outcome{Result: entry.Result, Cached: true}, nil
	}

	job, _ := s.Jobs.Submit(fp, fileKey, ident.Key())

	wctx := ctx
	if s.WaitTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, s.WaitTimeout)
		defer cancel()
	}
	res, err := job.Wait(wctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: *res, Cached: false}, nil
}

// Recent lists the caller's analysis history, most recent first.
func (s *Service) Recent(ctx context.Context, ident identity.Identity, limit int) ([]*history.Record, error) {
	return s.History.List(ctx, ident.Key(), limit)
}
