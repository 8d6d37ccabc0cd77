package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

var (
	// ErrInvalidKey is returned for keys that are not lowercase hex digests
	ErrInvalidKey = errors.New("storage: invalid cache key")
	// ErrInvalidIndex is returned for an index whose total disagrees with its locations
	ErrInvalidIndex = errors.New("storage: invalid navigation index")
)

// LocationsCache loads and saves navigation indices by source key
type LocationsCache interface {
	// Load returns the cached index; ok is false when nothing is stored
	Load(ctx context.Context, key string) (index types.NavigationIndex, ok bool, err error)
	Save(ctx context.Context, key string, index types.NavigationIndex) error
	Delete(ctx context.Context, key string) error
}

var keyPattern = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

// ValidateKey checks a cache key. Keys become file names, so only digests
// are accepted.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func validateIndex(index types.NavigationIndex) error {
	if index.TotalLocations < 0 {
		return fmt.Errorf("%w: negative total", ErrInvalidIndex)
	}
	if len(index.Locations) > 0 && index.TotalLocations != len(index.Locations) {
		return fmt.Errorf("%w: total %d for %d locations", ErrInvalidIndex, index.TotalLocations, len(index.Locations))
	}
	return nil
}

// clone copies the location slice so cached records never alias caller memory
func clone(index types.NavigationIndex) types.NavigationIndex {
	if index.Locations != nil {
		index.Locations = append([]types.CFI(nil), index.Locations...)
	}
	return index
}
