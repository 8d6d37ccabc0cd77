package types

import (
	"errors"
	"fmt"
)

// ErrUnknownSourceKind is returned for a source kind the renderer cannot open
var ErrUnknownSourceKind = errors.New("unknown source kind")

// SourceKind tells the renderer how to interpret the source locator
type SourceKind string

const (
	SourceEPUB   SourceKind = "epub"
	SourceOPF    SourceKind = "opf"
	SourceBinary SourceKind = "binary"
	SourceBase64 SourceKind = "base64"
)

// ParseSourceKind validates a source kind
func ParseSourceKind(s string) (SourceKind, error) {
	switch k := SourceKind(s); k {
	case SourceEPUB, SourceOPF, SourceBinary, SourceBase64:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
}

// Flow is the renderer layout discipline
type Flow string

const (
	FlowAuto               Flow = "auto"
	FlowPaginated          Flow = "paginated"
	FlowScrolled           Flow = "scrolled"
	FlowScrolledDoc        Flow = "scrolled-doc"
	FlowScrolledContinuous Flow = "scrolled-continuous"
)

// Valid reports whether f is a known flow
func (f Flow) Valid() bool {
	switch f {
	case FlowAuto, FlowPaginated, FlowScrolled, FlowScrolledDoc, FlowScrolledContinuous:
		return true
	}
	return false
}

// Manager selects the renderer's view manager
type Manager string

const (
	ManagerDefault    Manager = "default"
	ManagerContinuous Manager = "continuous"
)

// Spread controls two-page spreads
type Spread string

const (
	SpreadNone   Spread = "none"
	SpreadAlways Spread = "always"
	SpreadAuto   Spread = "auto"
)

// FontSize is a CSS font size such as "12pt" or "120%"
type FontSize string

// Theme maps CSS selectors to declarations, e.g. {"body": {"background": "#fff"}}
type Theme map[string]map[string]string

// Clone returns a deep copy so callers cannot mutate a stored theme
func (t Theme) Clone() Theme {
	if t == nil {
		return nil
	}
	out := make(Theme, len(t))
	for selector, rules := range t {
		copied := make(map[string]string, len(rules))
		for k, v := range rules {
			copied[k] = v
		}
		out[selector] = copied
	}
	return out
}

// Background returns the body background color, if any
func (t Theme) Background() string {
	if body, ok := t["body"]; ok {
		return body["background"]
	}
	return ""
}

// DefaultTheme is the light theme applied when the host supplies none
func DefaultTheme() Theme {
	return Theme{
		"body": {"background": "#fff"},
		"span": {"color": "#000 !important"},
		"p":    {"color": "#000 !important"},
		"li":   {"color": "#000 !important"},
		"h1":   {"color": "#000 !important"},
		"a": {
			"color":          "#000 !important",
			"pointer-events": "auto",
			"cursor":         "pointer",
		},
		"::selection": {"background": "lightskyblue"},
	}
}
