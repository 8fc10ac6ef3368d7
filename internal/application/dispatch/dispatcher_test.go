package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/lexiguard/internal/application"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
	"github.com/bryanwahyu/lexiguard/internal/infra/cache"
)

var testText = strings.Repeat("the parties agree under Section 302 of the Indian Penal Code ", 5)

type fakeObjects struct {
	data     []byte
	fetchErr error
}

func (f *fakeObjects) Stat(ctx context.Context, key string) (int64, error) {
	return int64(len(f.data)), nil
}

func (f *fakeObjects) Fetch(ctx context.Context, key string) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.data, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeMatcher struct {
	refs []domain.StatuteRef
	err  error
}

func (f *fakeMatcher) Match(ctx context.Context, text string) ([]domain.StatuteRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.refs, nil
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	verdict string
	script  []error      // per-attempt error; nil entry means success
	block   chan struct{} // when set, Summarize waits for it
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string, refs []domain.StatuteRef) (string, error) {
	f.mu.Lock()
	attempt := f.calls
	f.calls++
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if attempt < len(f.script) && f.script[attempt] != nil {
		return "", f.script[attempt]
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

func (f *fakeHistory) List(ctx context.Context, identity string, limit int) ([]*history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func newTestDispatcher(sum domain.Summarizer) (*Dispatcher, *cache.Memory, *fakeHistory) {
	mem := cache.NewMemory(application.SystemClock{})
	hist := &fakeHistory{}
	d := &Dispatcher{
		Objects:        &fakeObjects{data: []byte("%PDF-1.4")},
		Extractor:      &fakeExtractor{text: testText},
		Matcher:        &fakeMatcher{refs: []domain.StatuteRef{{Act: "IPC", Section: "302"}}},
		Summarizer:     sum,
		Cache:          mem,
		History:        hist,
		Clock:          application.SystemClock{},
		CacheTTL:       time.Hour,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
	return d, mem, hist
}

func TestSubmitDedupSequential(t *testing.T) {
	release := make(chan struct{})
	sum := &fakeSummarizer{verdict: "verdict", block: release}
	d, _, _ := newTestDispatcher(sum)

	fp := domain.Fingerprint("fp-1")
	first, owned := d.Submit(fp, "doc.pdf", "alice@example.com")
	require.True(t, owned)

	second, owned := d.Submit(fp, "doc.pdf", "bob@example.com")
	assert.False(t, owned)
	assert.Same(t, first, second)
	// the loser of the submit race never becomes the job owner
	assert.Equal(t, "alice@example.com", second.Owner)

	close(release)
	res, err := first.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "verdict", res.Verdict)
	assert.Equal(t, 1, sum.callCount())
}

func TestSubmitDedupConcurrent(t *testing.T) {
	const n = 8
	release := make(chan struct{})
	sum := &fakeSummarizer{verdict: "verdict", block: release}
	d, _, _ := newTestDispatcher(sum)

	fp := domain.Fingerprint("fp-concurrent")
	jobs := make([]*Job, n)
	var submitted sync.WaitGroup
	submitted.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			jobs[i], _ = d.Submit(fp, "doc.pdf", "caller")
			submitted.Done()
		}(i)
	}
	submitted.Wait()
	close(release)

	var verdicts []string
	for i := 0; i < n; i++ {
		res, err := jobs[i].Wait(context.Background())
		require.NoError(t, err)
		verdicts = append(verdicts, res.Verdict)
	}
	for _, v := range verdicts {
		assert.Equal(t, "verdict", v)
	}
	// exactly one summarization despite n concurrent submits
	assert.Equal(t, 1, sum.callCount())
}

func TestCompleteWritesCacheAndHistory(t *testing.T) {
	sum := &fakeSummarizer{verdict: "verdict"}
	d, mem, hist := newTestDispatcher(sum)

	fp := domain.Fingerprint("fp-complete")
	job, _ := d.Submit(fp, "doc.pdf", "alice@example.com")
	res, err := job.Wait(context.Background())
	require.NoError(t, err)

	// writes happen before the job signals completion
	entry, hit, err := mem.Lookup(context.Background(), fp)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, res.Verdict, entry.Result.Verdict)

	require.Equal(t, 1, hist.count())
	assert.Equal(t, "alice@example.com", hist.records[0].Identity)
	assert.Equal(t, "doc.pdf", hist.records[0].FileKey)

	assert.Eventually(t, func() bool { return d.InFlight() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestTransientFailureRetriedToSuccess(t *testing.T) {
	sum := &fakeSummarizer{
		verdict: "verdict",
		script:  []error{domain.ErrUpstreamTransient, domain.ErrUpstreamTransient, nil},
	}
	d, _, _ := newTestDispatcher(sum)

	job, _ := d.Submit(domain.Fingerprint("fp-retry"), "doc.pdf", "alice@example.com")
	res, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "verdict", res.Verdict)
	assert.Equal(t, 3, sum.callCount())
}

func TestRetriesExhausted(t *testing.T) {
	sum := &fakeSummarizer{
		script: []error{domain.ErrUpstreamTransient, domain.ErrUpstreamTransient, domain.ErrUpstreamTransient},
	}
	d, mem, hist := newTestDispatcher(sum)

	fp := domain.Fingerprint("fp-exhausted")
	job, _ := d.Submit(fp, "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 3, sum.callCount())

	// a failed job is never cached, so the next request re-attempts
	_, hit, lerr := mem.Lookup(context.Background(), fp)
	require.NoError(t, lerr)
	assert.False(t, hit)
	assert.Zero(t, hist.count())
}

func TestPermanentSummarizerFailureNotRetried(t *testing.T) {
	boom := errors.New("schema rejected")
	sum := &fakeSummarizer{script: []error{boom}}
	d, _, _ := newTestDispatcher(sum)

	job, _ := d.Submit(domain.Fingerprint("fp-permanent"), "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sum.callCount())
}

func TestInsufficientContentFailsValidation(t *testing.T) {
	sum := &fakeSummarizer{verdict: "verdict"}
	d, mem, _ := newTestDispatcher(sum)
	d.Extractor = &fakeExtractor{text: "too short"}

	fp := domain.Fingerprint("fp-short")
	job, _ := d.Submit(fp, "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.RuleInsufficientContent, verr.Rule)
	// the ai capability is never reached
	assert.Zero(t, sum.callCount())

	_, hit, _ := mem.Lookup(context.Background(), fp)
	assert.False(t, hit)
}

func TestExtractionFailure(t *testing.T) {
	sum := &fakeSummarizer{verdict: "verdict"}
	d, _, _ := newTestDispatcher(sum)
	d.Extractor = &fakeExtractor{err: errors.New("corrupt xref table")}

	job, _ := d.Submit(domain.Fingerprint("fp-corrupt"), "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Zero(t, sum.callCount())
}

func TestObjectNotFoundPassthrough(t *testing.T) {
	sum := &fakeSummarizer{verdict: "verdict"}
	d, _, _ := newTestDispatcher(sum)
	d.Objects = &fakeObjects{fetchErr: domain.ErrObjectNotFound}

	job, _ := d.Submit(domain.Fingerprint("fp-missing"), "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestMatchingFailureIsDefect(t *testing.T) {
	sum := &fakeSummarizer{verdict: "verdict"}
	d, _, _ := newTestDispatcher(sum)
	d.Matcher = &fakeMatcher{err: errors.New("corpus index corrupted")}

	job, _ := d.Submit(domain.Fingerprint("fp-match"), "doc.pdf", "alice@example.com")
	_, err := job.Wait(context.Background())
	require.ErrorIs(t, err, domain.ErrMatchingFailed)
	assert.Zero(t, sum.callCount())
}

func TestWaiterTimeoutDoesNotCancelJob(t *testing.T) {
	release := make(chan struct{})
	sum := &fakeSummarizer{verdict: "verdict", block: release}
	d, mem, _ := newTestDispatcher(sum)

	fp := domain.Fingerprint("fp-timeout")
	job, _ := d.Submit(fp, "doc.pdf", "alice@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := job.Wait(ctx)
	require.ErrorIs(t, err, domain.ErrWaitTimeout)

	// the job keeps running and populates the cache for later callers
	close(release)
	assert.Eventually(t, func() bool {
		_, hit, _ := mem.Lookup(context.Background(), fp)
		return hit
	}, time.Second, 5*time.Millisecond)
}

func TestJobStateTransitions(t *testing.T) {
	release := make(chan struct{})
	sum := &fakeSummarizer{verdict: "verdict", block: release}
	d, _, _ := newTestDispatcher(sum)

	job, _ := d.Submit(domain.Fingerprint("fp-states"), "doc.pdf", "alice@example.com")
	assert.Eventually(t, func() bool { return job.State() == domain.StateSummarizing },
		time.Second, time.Millisecond)

	close(release)
	_, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, job.State())
	assert.True(t, job.State().Terminal())
}
