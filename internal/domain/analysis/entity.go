package analysis

import (
	"time"
)

// Fingerprint is the deterministic cache/dedup key derived from a file key.
type Fingerprint string

// JobState enum
type JobState string

const (
	StateQueued      JobState = "queued"
	StateExtracting  JobState = "extracting"
	StateMatching    JobState = "matching"
	StateSummarizing JobState = "summarizing"
	StateComplete    JobState = "complete"
	StateFailed      JobState = "failed"
)

// Terminal reports whether no further transitions happen from this state.
func (s JobState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// StatuteRef is one matched reference from the statutory corpus.
type StatuteRef struct {
	Act     string `json:"act"`
	Section string `json:"section"`
	Title   string `json:"title,omitempty"`
}

// Result of a completed analysis. Immutable once produced.
type Result struct {
	Verdict     string       `json:"verdict"`
	References  []StatuteRef `json:"references,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// CacheEntry wraps a memoized Result.
type CacheEntry struct {
	Fingerprint Fingerprint   `json:"fingerprint"`
	Result      Result        `json:"result"`
	CreatedAt   time.Time     `json:"created_at"`
	TTL         time.Duration `json:"-"`
}

// Expired reports lazy TTL expiry relative to now.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}
