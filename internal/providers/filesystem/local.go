package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// Local implements FileSystem over the host disk
type Local struct {
	root   string
	allow  *AllowList
	client   *Client
	breakers *resilience.Group
	cfg      DownloadConfig
	logger   *zap.Logger
}

// Option customizes Local
type Option func(*Local)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Local) { l.logger = logger }
}

// WithBreakers replaces the per-host circuit breakers
func WithBreakers(g *resilience.Group) Option {
	return func(l *Local) { l.breakers = g }
}

// WithClient replaces the download client
func WithClient(c *Client) Option {
	return func(l *Local) { l.client = c }
}

// NewLocal creates the document directory if needed. allow may be nil.
func NewLocal(cfg Config, allow *AllowList, options ...Option) (*Local, error) {
	if cfg.DocumentDir == "" {
		return nil, fmt.Errorf("document directory required")
	}
	root, err := filepath.Abs(cfg.DocumentDir)
	if err != nil {
		return nil, fmt.Errorf("resolve document directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}

	dl := cfg.Download
	if dl == (DownloadConfig{}) {
		dl = DefaultDownloadConfig()
	}
	if dl.MaxBytes <= 0 {
		dl.MaxBytes = DefaultDownloadConfig().MaxBytes
	}

	l := &Local{
		root:   root,
		allow:  allow,
		cfg:    dl,
		logger: zap.NewNop(),
	}
	for _, o := range options {
		o(l)
	}
	if l.client == nil {
		l.client = NewClient(dl)
	}
	if l.breakers == nil {
		settings := resilience.DefaultSettings()
		settings.IsFailure = hostFailure
		settings.OnStateChange = func(host string, from, to resilience.State) {
			l.logger.Warn("Source host breaker changed state",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}
		l.breakers = resilience.NewGroup(settings)
	}
	return l, nil
}

// DocumentDirectory implements FileSystem
func (l *Local) DocumentDirectory() string {
	return l.root
}

// Resolve maps a path to an absolute one and checks it may be read.
// Relative paths are taken from the document directory.
func (l *Local) Resolve(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: %q", ErrNotAllowed, p)
	}
	abs := p
	if !filepath.IsAbs(p) {
		abs = filepath.Join(l.root, p)
	}
	abs = filepath.Clean(abs)

	if l.inRoot(abs) || l.allow.Allowed(abs) {
		return abs, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotAllowed, p)
}

func (l *Local) inRoot(abs string) bool {
	rel, err := filepath.Rel(l.root, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ReadFile implements FileSystem
func (l *Local) ReadFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := l.Resolve(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// WriteFile implements FileSystem. Writes are confined to the document directory.
func (l *Local) WriteFile(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := l.Resolve(p)
	if err != nil {
		return err
	}
	if !l.inRoot(abs) {
		return fmt.Errorf("%w: writes outside %s", ErrNotAllowed, l.root)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(abs, data, 0o644)
}

// Stat implements FileSystem
func (l *Local) Stat(ctx context.Context, p string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	abs, err := l.Resolve(p)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, err
	}

	fi := FileInfo{
		Name:      info.Name(),
		Path:      abs,
		Size:      info.Size(),
		Modified:  info.ModTime(),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(abs)), "."),
	}
	if !info.IsDir() {
		mimeType, charset, err := Sniff(abs)
		if err != nil {
			l.logger.Debug("Sniff failed", zap.String("path", abs), zap.Error(err))
		}
		fi.MimeType = mimeType
		fi.Charset = charset
	}
	return fi, nil
}

// Download implements FileSystem. The body is streamed to a temporary file
// and renamed into place once complete. Each host has its own breaker, so
// a failing publisher is refused without waiting on retries.
func (l *Local) Download(ctx context.Context, rawURL, name string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid download url %q", rawURL)
	}

	target := filepath.Join(l.root, downloadName(u, name))

	var written int64
	err = l.breakers.Do(u.Host, func() error {
		var fetchErr error
		written, fetchErr = l.fetch(ctx, rawURL, target)
		return fetchErr
	})
	if err != nil {
		return "", err
	}

	l.logger.Info("Downloaded source",
		zap.String("url", rawURL),
		zap.String("path", target),
		zap.Int64("bytes", written))
	return target, nil
}

func (l *Local) fetch(ctx context.Context, rawURL, target string) (int64, error) {
	req, err := l.client.Request(ctx)
	if err != nil {
		return 0, err
	}
	resp, err := req.SetDoNotParseResponse(true).Get(rawURL)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return 0, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	tmp, err := os.CreateTemp(l.root, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	limit := l.cfg.MaxBytes
	written, err := io.Copy(tmp, io.LimitReader(body, limit+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	if written > limit {
		return 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("commit download: %w", err)
	}
	return written, nil
}

// hostFailure reports whether a download error says the host is unhealthy
func hostFailure(err error) bool {
	var status *StatusError
	switch {
	case errors.As(err, &status):
		return status.Code >= 500 || status.Code == http.StatusTooManyRequests
	case errors.Is(err, ErrTooLarge), errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// downloadName picks a file name inside the document directory
func downloadName(u *url.URL, name string) string {
	candidates := []string{name, path.Base(u.Path)}
	for _, c := range candidates {
		c = filepath.Base(filepath.Clean("/" + c))
		if c != "" && c != "." && c != "/" && c != string(filepath.Separator) {
			return c
		}
	}
	return utils.DefaultHasher().HashString(u.String())[:16]
}
