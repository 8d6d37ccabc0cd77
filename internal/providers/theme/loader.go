package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for theme files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported theme file format")

// document is the top-level layout of a theme file
type document struct {
	Themes []Definition `json:"themes" yaml:"themes" toml:"themes"`
}

// Parse decodes theme definitions; format is a file extension such as ".yaml"
func Parse(format string, data []byte) ([]Definition, error) {
	var doc document
	var err error

	switch strings.ToLower(format) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".json":
		err = sonic.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s themes: %w", strings.TrimPrefix(format, "."), err)
	}
	return doc.Themes, nil
}

// Supported reports whether a file name has a theme file extension
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}

// LoadFile registers every theme in a file and returns how many were loaded
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read theme file: %w", err)
	}
	defs, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(defs), nil
}

// LoadDir loads every theme file under dir. Files are read concurrently;
// a bad file is reported but does not stop the walk.
func (r *Registry) LoadDir(dir string) (int, error) {
	var (
		loaded atomic.Int64
		mu     sync.Mutex
		errs   []error
	)

	conf := fastwalk.Config{
		Follow: false,
	}
	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if d.IsDir() || !Supported(d.Name()) {
			return nil
		}

		n, err := r.LoadFile(path)
		if err != nil {
			r.logger.Warn("Skipping theme file", zap.String("path", path), zap.Error(err))
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		}
		loaded.Add(int64(n))
		return nil
	})
	if err != nil {
		return int(loaded.Load()), fmt.Errorf("walk theme dir: %w", err)
	}
	return int(loaded.Load()), errors.Join(errs...)
}
