package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// JSON size limits (in bytes)
const (
	MaxJSONSize      = 1 * 1024 * 1024 // 1MB - maximum request body
	MaxDataSize      = 64 * 1024       // 64KB - annotation/bookmark data map
	MaxDataDepth     = 16
	MaxScriptSize    = 256 * 1024 // 256KB - host-supplied JavaScript
	MaxSearchTermLen = 512
)

// String length limits
const (
	MaxIDLength         = 128
	MaxTagIDLength      = 256
	MaxFontFamilyLength = 256
	MaxLabelLength      = 128
	MaxSourceLength     = 64 * 1024 * 1024 // base64 sources are inline
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// TagIDPattern matches HTML id attribute values as authored in documents
	TagIDPattern = regexp.MustCompile(`^[^\s]+$`)
)

// ErrInvalidInput marks every validation failure
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return invalid("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return invalid("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateData checks a free-form data map attached to an annotation or
// bookmark before it is embedded in a command
func ValidateData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	encoded, err := sonic.Marshal(data)
	if err != nil {
		return invalid("data is not serializable: %v", err)
	}
	if err := NewJSONSizeValidator(MaxDataSize).ValidateSize(encoded); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	var generic map[string]interface{}
	if err := sonic.Unmarshal(encoded, &generic); err != nil {
		return invalid("data: %v", err)
	}
	return ValidateJSONDepth(generic, MaxDataDepth)
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return invalid("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return invalid("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return invalid("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return invalid("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return invalid("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateTagID validates an element id inside the rendered document
func ValidateTagID(id string) error {
	if err := ValidateString(id, "tagId", 1, MaxTagIDLength, true); err != nil {
		return err
	}
	if !TagIDPattern.MatchString(id) {
		return invalid("tagId must not contain whitespace")
	}
	return nil
}

// ValidateSearchTerm validates a search term; empty is allowed
func ValidateSearchTerm(term string) error {
	return ValidateString(term, "term", 0, MaxSearchTermLen, false)
}

// ValidateFontFamily validates a CSS font family
func ValidateFontFamily(family string) error {
	return ValidateString(family, "fontFamily", 1, MaxFontFamilyLength, true)
}

// ValidateLabel validates a selection menu label
func ValidateLabel(label string) error {
	return ValidateString(label, "label", 1, MaxLabelLength, true)
}

// ValidateScript validates host-supplied JavaScript
func ValidateScript(script string) error {
	return ValidateString(script, "script", 1, MaxScriptSize, true)
}
