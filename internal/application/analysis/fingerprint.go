package analysis

import (
	"crypto/sha256"
	"encoding/hex"

	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

// FingerprintOf derives the cache/dedup key from a file key.
// Identical file key -> identical fingerprint. Two different keys
// pointing at byte-identical content do not share a cache entry.
func FingerprintOf(fileKey string) domain.Fingerprint {
	sum := sha256.Sum256([]byte(fileKey))
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}
