package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hasher produces hex-encoded SHA-256 digests
type Hasher struct{}

// DefaultHasher returns the shared hasher
func DefaultHasher() *Hasher {
	return &Hasher{}
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFields hashes fields independent of their order
func (h *Hasher) HashFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)
	return h.HashString(strings.Join(sorted, "|"))
}

// SourceIdentifier derives stable keys for document sources. Keys are used to
// look up cached navigation indices, so the same source opened with the same
// location budget always maps to the same key.
type SourceIdentifier struct {
	hasher *Hasher
}

// NewSourceIdentifier creates a new source identifier
func NewSourceIdentifier(hasher *Hasher) *SourceIdentifier {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	return &SourceIdentifier{hasher: hasher}
}

// CacheKey returns the navigation index key for a source and location budget
func (si *SourceIdentifier) CacheKey(source string, charactersPerLocation int) string {
	return si.hasher.HashFields(
		fmt.Sprintf("source:%s", source),
		fmt.Sprintf("budget:%d", charactersPerLocation),
	)
}
