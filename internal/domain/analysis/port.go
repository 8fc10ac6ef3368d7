package analysis

import (
	"context"
	"time"
)

// Cache port (interface for the result memo store)
type Cache interface {
	// Lookup returns the entry for fp, or ok=false on miss/expiry.
	Lookup(ctx context.Context, fp Fingerprint) (*CacheEntry, bool, error)
	// Store memoizes a result. Last writer wins; never observed torn.
	Store(ctx context.Context, fp Fingerprint, res Result, ttl time.Duration) error
}

// ObjectStore port (read-only view of uploaded documents)
type ObjectStore interface {
	// Stat returns object size in bytes, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (int64, error)
	// Fetch returns the raw object bytes.
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor port (object bytes -> plain text)
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Matcher port (extracted text -> statutory references, deterministic)
type Matcher interface {
	Match(ctx context.Context, text string) ([]StatuteRef, error)
}

// Summarizer port (text + references -> verdict text)
type Summarizer interface {
	Summarize(ctx context.Context, text string, refs []StatuteRef) (string, error)
}
