package analysis

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/lexiguard/internal/application"
	"github.com/bryanwahyu/lexiguard/internal/application/dispatch"
	"github.com/bryanwahyu/lexiguard/internal/application/uploads"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
	"github.com/bryanwahyu/lexiguard/internal/domain/identity"
	"github.com/bryanwahyu/lexiguard/internal/infra/cache"
)

var testText = strings.Repeat("indemnification obligations under Section 73 of the Contract Act ", 5)

type fakeObjects struct {
	mu         sync.Mutex
	size       int64
	statErr    error
	statCalls  int
	fetchCalls int
}

func (f *fakeObjects) Stat(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	f.statCalls++
	f.mu.Unlock()
	if f.statErr != nil {
		return 0, f.statErr
	}
	return f.size, nil
}

func (f *fakeObjects) Fetch(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	return []byte("%PDF-1.4"), nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return testText, nil
}

type fakeMatcher struct{}

func (fakeMatcher) Match(ctx context.Context, text string) ([]domain.StatuteRef, error) {
	return []domain.StatuteRef{{Act: "Contract Act", Section: "73"}}, nil
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	verdict string
	delay   time.Duration
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, refs []domain.StatuteRef) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.verdict, nil
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*history.Record
}

func (f *fakeHistory) Append(ctx context.Context, r *history.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

func (f *fakeHistory) List(ctx context.Context, ident string, limit int) ([]*history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*history.Record
	for _, r := range f.records {
		if r.Identity == ident {
			out = append(out, r)
		}
	}
	return out, nil
}

type env struct {
	svc     *Service
	pending *uploads.Pending
	objects *fakeObjects
	sum     *fakeSummarizer
	hist    *fakeHistory
}

func newTestService(t *testing.T) *env {
	t.Helper()
	objects := &fakeObjects{size: 1024}
	sum := &fakeSummarizer{verdict: "Verdict: the document is a standard NDA."}
	hist := &fakeHistory{}
	mem := cache.NewMemory(application.SystemClock{})
	pending := uploads.NewPending()

	d := &dispatch.Dispatcher{
		Objects:        objects,
		Extractor:      fakeExtractor{},
		Matcher:        fakeMatcher{},
		Summarizer:     sum,
		Cache:          mem,
		History:        hist,
		Clock:          application.SystemClock{},
		CacheTTL:       time.Hour,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
	svc := &Service{
		Pending:     pending,
		Objects:     objects,
		Cache:       mem,
		Jobs:        d,
		History:     hist,
		WaitTimeout: 5 * time.Second,
	}
	return &env{svc: svc, pending: pending, objects: objects, sum: sum, hist: hist}
}

func caller() identity.Identity {
	return identity.Identity{Subject: "sub-1", Email: "alice@example.com"}
}

func TestCheckCacheIdempotence(t *testing.T) {
	e := newTestService(t)
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	first, err := e.svc.Check(context.Background(), caller())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.NotEmpty(t, first.Result.Verdict)

	second, err := e.svc.Check(context.Background(), caller())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result.Verdict, second.Result.Verdict)

	// the expensive pipeline ran exactly once
	assert.Equal(t, 1, e.sum.callCount())
}

func TestCheckCacheHitSkipsCapabilities(t *testing.T) {
	e := newTestService(t)
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	_, err := e.svc.Check(context.Background(), caller())
	require.NoError(t, err)
	fetchesAfterFirst := e.objects.fetchCalls

	_, err = e.svc.Check(context.Background(), caller())
	require.NoError(t, err)
	assert.Equal(t, fetchesAfterFirst, e.objects.fetchCalls)
	assert.Equal(t, 1, e.sum.callCount())
}

func TestCheckNoPendingDocument(t *testing.T) {
	e := newTestService(t)
	_, err := e.svc.Check(context.Background(), caller())
	require.ErrorIs(t, err, domain.ErrNoPendingDocument)
}

func TestCheckValidationFailsFast(t *testing.T) {
	e := newTestService(t)
	e.pending.Set(caller().Key(), "../../etc/passwd")

	_, err := e.svc.Check(context.Background(), caller())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	// no side effects before validation completes
	assert.Zero(t, e.objects.statCalls)
	assert.Zero(t, e.objects.fetchCalls)
	assert.Zero(t, e.sum.callCount())
}

func TestCheckObjectTooLarge(t *testing.T) {
	e := newTestService(t)
	e.objects.size = 60 * 1024 * 1024
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	_, err := e.svc.Check(context.Background(), caller())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.RuleObjectTooLarge, verr.Rule)
	assert.Zero(t, e.objects.fetchCalls)
}

func TestCheckObjectNotFound(t *testing.T) {
	e := newTestService(t)
	e.objects.statErr = domain.ErrObjectNotFound
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	_, err := e.svc.Check(context.Background(), caller())
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestConcurrentChecksSingleSummarization(t *testing.T) {
	e := newTestService(t)
	e.sum.delay = 100 * time.Millisecond
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	const n = 5
	outcomes := make([]*Outcome, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = e.svc.Check(context.Background(), caller())
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, outcomes[0].Result.Verdict, outcomes[i].Result.Verdict)
	}
	assert.Equal(t, 1, e.sum.callCount())
}

func TestCheckWaitTimeout(t *testing.T) {
	e := newTestService(t)
	e.sum.delay = 500 * time.Millisecond
	e.svc.WaitTimeout = 20 * time.Millisecond
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	_, err := e.svc.Check(context.Background(), caller())
	require.ErrorIs(t, err, domain.ErrWaitTimeout)

	// the job outlives the request and fills the cache
	assert.Eventually(t, func() bool {
		out, cerr := e.svc.Check(context.Background(), caller())
		return cerr == nil && out.Cached
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRecentReturnsCallerHistory(t *testing.T) {
	e := newTestService(t)
	e.pending.Set(caller().Key(), "contracts-nda.pdf")

	_, err := e.svc.Check(context.Background(), caller())
	require.NoError(t, err)

	list, err := e.svc.Recent(context.Background(), caller(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "contracts-nda.pdf", list[0].FileKey)
	assert.Equal(t, caller().Key(), list[0].Identity)
}
