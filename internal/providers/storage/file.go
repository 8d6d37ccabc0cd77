package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

const recordExt = ".json.zst"

// record is the on-disk form of a cached index
type record struct {
	Key     string                `json:"key"`
	SavedAt time.Time             `json:"savedAt"`
	Index   types.NavigationIndex `json:"index"`
}

// FileCache stores one zstd-compressed JSON record per key under a directory.
// Writes go to a temporary file that is renamed into place.
type FileCache struct {
	dir     string
	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *zap.Logger
}

// FileOption customizes a FileCache
type FileOption func(*FileCache)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FileOption {
	return func(c *FileCache) { c.logger = logger }
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string, options ...FileOption) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	c := &FileCache{
		dir:     dir,
		encoder: encoder,
		decoder: decoder,
		logger:  zap.NewNop(),
	}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// Dir returns the cache directory
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+recordExt)
}

// Load implements LocationsCache. A corrupt record is treated as a miss and
// removed.
func (c *FileCache) Load(ctx context.Context, key string) (types.NavigationIndex, bool, error) {
	if err := ValidateKey(key); err != nil {
		return types.NavigationIndex{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return types.NavigationIndex{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return types.NavigationIndex{}, false, nil
	}
	if err != nil {
		return types.NavigationIndex{}, false, fmt.Errorf("read cache record: %w", err)
	}

	rec, err := c.decode(compressed)
	if err != nil || rec.Key != key {
		c.logger.Warn("Discarding unreadable cache record", zap.String("key", key), zap.Error(err))
		_ = os.Remove(c.path(key))
		return types.NavigationIndex{}, false, nil
	}
	return rec.Index, true, nil
}

func (c *FileCache) decode(compressed []byte) (record, error) {
	var rec record
	data, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return rec, fmt.Errorf("decompress: %w", err)
	}
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode: %w", err)
	}
	return rec, validateIndex(rec.Index)
}

// Save implements LocationsCache
func (c *FileCache) Save(ctx context.Context, key string, index types.NavigationIndex) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := validateIndex(index); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.Marshal(record{Key: key, SavedAt: time.Now().UTC(), Index: index})
	if err != nil {
		return fmt.Errorf("encode cache record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	compressed := c.encoder.EncodeAll(data, nil)
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache record: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("commit cache record: %w", err)
	}

	c.logger.Debug("Cached navigation index",
		zap.String("key", key),
		zap.Int("locations", len(index.Locations)),
		zap.Int("bytes", len(compressed)))
	return nil
}

// Delete implements LocationsCache
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cache record: %w", err)
	}
	return nil
}

// Close releases the codec resources
func (c *FileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoder.Close()
	return c.encoder.Close()
}
