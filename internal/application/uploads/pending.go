package uploads

import (
	"sync"
	"time"
)

// Pending tracks the most recent uploaded file key per identity, fed by
// the upload-notification consumer. Reads do not consume the entry, so
// a repeated status call for the same document resolves to a cache hit.
type Pending struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	fileKey  string
	queuedAt time.Time
}

func NewPending() *Pending {
	return &Pending{entries: make(map[string]entry)}
}

// Set records the latest file key for an identity, replacing any previous one.
func (p *Pending) Set(identity, fileKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[identity] = entry{fileKey: fileKey, queuedAt: time.Now()}
}

// Latest returns the current file key for an identity.
func (p *Pending) Latest(identity string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[identity]
	return e.fileKey, ok
}

// Clear drops the entry for an identity.
func (p *Pending) Clear(identity string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, identity)
}
