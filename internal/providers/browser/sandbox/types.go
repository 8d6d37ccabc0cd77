package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when a script exceeds the execution timeout
	ErrTimeout = errors.New("sandbox: execution timeout exceeded")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("sandbox: runtime closed")
	// ErrNotLoaded is returned when a command arrives before a document
	ErrNotLoaded = errors.New("sandbox: no document loaded")
)

// Config defines sandbox configuration
type Config struct {
	MaxCallStackSize int           // Maximum JavaScript call depth
	Timeout          time.Duration // Per-script execution timeout
	EnableConsole    bool          // Capture console.log/warn/error
	MaxConsole       int           // Console entries kept; oldest are dropped
}

// DefaultConfig returns the configuration used for headless documents
func DefaultConfig() Config {
	return Config{
		MaxCallStackSize: 1024,
		Timeout:          5 * time.Second,
		EnableConsole:    true,
		MaxConsole:       256,
	}
}

// Result holds the outcome of one Execute call
type Result struct {
	Value    interface{}
	Console  []LogEntry
	Duration time.Duration
	Error    error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// DOMChange represents a DOM modification made by page scripts
type DOMChange struct {
	Type     string
	Selector string
	Property string
	Value    interface{}
}

// Bridge receives the messages the page posts through window.ReaderHost.
// Messages are delivered in posting order, outside script execution, so a
// bridge may inject follow-up scripts into the same runtime.
type Bridge interface {
	Deliver(ctx context.Context, message []byte) error
}

// BridgeFunc adapts a function to Bridge
type BridgeFunc func(ctx context.Context, message []byte) error

// Deliver implements Bridge
func (f BridgeFunc) Deliver(ctx context.Context, message []byte) error {
	return f(ctx, message)
}

// ScriptResolver fetches the source of an external <script src>
type ScriptResolver interface {
	Resolve(ctx context.Context, src string) (string, error)
}

// ResolverFunc adapts a function to ScriptResolver
type ResolverFunc func(ctx context.Context, src string) (string, error)

// Resolve implements ScriptResolver
func (f ResolverFunc) Resolve(ctx context.Context, src string) (string, error) {
	return f(ctx, src)
}

// FSResolver serves scripts from a file system by base name, so documents
// may reference them through any URL prefix
type FSResolver struct {
	FS fs.FS
}

// Resolve implements ScriptResolver
func (r FSResolver) Resolve(ctx context.Context, src string) (string, error) {
	name := path.Base(strings.SplitN(src, "?", 2)[0])
	data, err := fs.ReadFile(r.FS, name)
	if err != nil {
		return "", fmt.Errorf("resolve script %q: %w", src, err)
	}
	return string(data), nil
}
