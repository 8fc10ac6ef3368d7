package history

import "time"

// RecordID identifier type
type RecordID string

// Record is one completed analysis, append-only, never mutated after insert.
type Record struct {
	ID        RecordID  `json:"id"`
	Identity  string    `json:"identity"`
	FileKey   string    `json:"file_key"`
	Verdict   string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}
