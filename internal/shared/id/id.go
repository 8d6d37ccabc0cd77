// Package id generates identifiers for reader sessions, bridge connections
// and API requests.
//
// Identifiers are ULIDs behind a short type prefix (rdr_*, conn_*, req_*,
// trace_*, span_*), so
// they sort by creation time and read clearly in logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReaderID identifies an open reading session
type ReaderID string

// ConnectionID identifies one bridge connection to a sandbox
type ConnectionID string

// RequestID identifies an API request
type RequestID string

// TraceID groups the spans of one request
type TraceID string

// SpanID identifies one traced operation
type SpanID string

const (
	ReaderPrefix     = "rdr"
	ConnectionPrefix = "conn"
	RequestPrefix    = "req"
	TracePrefix      = "trace"
	SpanPrefix       = "span"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand. Identifiers made
// within the same millisecond still sort in creation order.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic identifiers.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewReaderID generates a reading session id
func NewReaderID() ReaderID {
	return ReaderID(Default().GenerateWithPrefix(ReaderPrefix))
}

// NewConnectionID generates a bridge connection id
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(ConnectionPrefix))
}

// NewRequestID generates a request id
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewTraceID generates a trace id
func NewTraceID() TraceID {
	return TraceID(Default().GenerateWithPrefix(TracePrefix))
}

// NewSpanID generates a span id
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

func (id ReaderID) String() string     { return string(id) }
func (id ConnectionID) String() string { return string(id) }
func (id RequestID) String() string    { return string(id) }
func (id TraceID) String() string      { return string(id) }
func (id SpanID) String() string       { return string(id) }

// ParseReaderID validates an id received from a client
func ParseReaderID(s string) (ReaderID, error) {
	if err := checkPrefixed(s, ReaderPrefix); err != nil {
		return "", err
	}
	return ReaderID(s), nil
}

func checkPrefixed(s, prefix string) error {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return fmt.Errorf("id %q: expected prefix %q", s, prefix)
	}
	if !IsValid(rest) {
		return fmt.Errorf("id %q: malformed ulid", s)
	}
	return nil
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.ParseStrict(id)
}

// Timestamp extracts the creation time from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
