package filesystem

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/resilience"
)

func testConfig(dir string) Config {
	return Config{
		DocumentDir: dir,
		Download: DownloadConfig{
			Timeout:      5 * time.Second,
			RetryMax:     2,
			RetryWaitMin: time.Millisecond,
			RetryWaitMax: 5 * time.Millisecond,
			MaxBytes:     1024,
			UserAgent:    "test",
		},
	}
}

func epubBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = f.Write([]byte("application/epub+zip"))
	require.NoError(t, err)
	f, err = w.Create("META-INF/container.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?><container/>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestAllowList(t *testing.T) {
	allow, err := NewAllowList([]string{"/srv/books/**/*.epub", "/opt/assets/*.js"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/srv/books/melville/moby-dick.epub", true},
		{"/srv/books/a/b/c/d.epub", true},
		{"/srv/books/notes.txt", false},
		{"/opt/assets/epub.min.js", true},
		{"/opt/assets/sub/epub.min.js", false},
		{"/srv/books/../../etc/passwd.epub", false},
		{"relative/book.epub", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, allow.Allowed(tt.path))
		})
	}

	var none *AllowList
	assert.False(t, none.Allowed("/srv/books/x.epub"))

	_, err = NewAllowList([]string{"/srv/[books"})
	assert.Error(t, err)
}

func TestLocalReadWriteStat(t *testing.T) {
	ctx := context.Background()
	fs, err := NewLocal(testConfig(t.TempDir()), nil)
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile(ctx, "shelf/book.epub", epubBytes(t)))
	data, err := fs.ReadFile(ctx, "shelf/book.epub")
	require.NoError(t, err)
	assert.Equal(t, epubBytes(t), data)

	info, err := fs.Stat(ctx, "shelf/book.epub")
	require.NoError(t, err)
	assert.Equal(t, "book.epub", info.Name)
	assert.Equal(t, "epub", info.Extension)
	assert.Equal(t, "application/epub+zip", info.MimeType)
	assert.Equal(t, "epub", SourceKindFor(info.MimeType))
	assert.Equal(t, filepath.Join(fs.DocumentDirectory(), "shelf", "book.epub"), info.Path)

	text := strings.Repeat("Ça déjà vu, naïve café crème brûlée. ", 20)
	require.NoError(t, fs.WriteFile(ctx, "notes.txt", []byte(text)))
	info, err = fs.Stat(ctx, "notes.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.MimeType, "text/plain"))
	assert.Equal(t, "UTF-8", info.Charset)
}

func TestLocalConfinesPaths(t *testing.T) {
	ctx := context.Background()
	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "secret.epub")
	require.NoError(t, os.WriteFile(outsideFile, []byte("x"), 0o644))

	fs, err := NewLocal(testConfig(t.TempDir()), nil)
	require.NoError(t, err)

	_, err = fs.ReadFile(ctx, outsideFile)
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = fs.ReadFile(ctx, "../"+filepath.Base(outside)+"/secret.epub")
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.ErrorIs(t, fs.WriteFile(ctx, "../escape.txt", []byte("x")), ErrNotAllowed)

	allow, err := NewAllowList([]string{filepath.ToSlash(outside) + "/*.epub"})
	require.NoError(t, err)
	fs, err = NewLocal(testConfig(t.TempDir()), allow)
	require.NoError(t, err)

	data, err := fs.ReadFile(ctx, outsideFile)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	// allow-listed paths are readable, never writable
	assert.ErrorIs(t, fs.WriteFile(ctx, outsideFile, []byte("y")), ErrNotAllowed)
}

func TestLocalDownload(t *testing.T) {
	book := epubBytes(t)
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky/book":
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write(book)
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	fs, err := NewLocal(testConfig(t.TempDir()), nil)
	require.NoError(t, err)

	t.Run("retries and names from url", func(t *testing.T) {
		cfg := testConfig(t.TempDir())
		cfg.Download.MaxBytes = 1 << 20
		fs, err := NewLocal(cfg, nil)
		require.NoError(t, err)

		path, err := fs.Download(ctx, srv.URL+"/flaky/book", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fs.DocumentDirectory(), "book"), path)
		assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))

		info, err := fs.Stat(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "application/epub+zip", info.MimeType)
	})

	t.Run("explicit name cannot traverse", func(t *testing.T) {
		atomic.StoreInt32(&attempts, 1)
		cfg := testConfig(t.TempDir())
		cfg.Download.MaxBytes = 1 << 20
		fs, err := NewLocal(cfg, nil)
		require.NoError(t, err)

		path, err := fs.Download(ctx, srv.URL+"/flaky/book", "../../escape.epub")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(fs.DocumentDirectory(), "escape.epub"), path)
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := fs.Download(ctx, srv.URL+"/big", "big.bin")
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.NoFileExists(t, filepath.Join(fs.DocumentDirectory(), "big.bin"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := fs.Download(ctx, srv.URL+"/missing", "missing.epub")
		assert.Error(t, err)
	})

	t.Run("bad scheme", func(t *testing.T) {
		_, err := fs.Download(ctx, "file:///etc/passwd", "")
		assert.Error(t, err)
	})
}

func TestLocalDownloadBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	settings := resilience.DefaultSettings()
	settings.IsFailure = hostFailure
	settings.ReadyToTrip = func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 2 }
	breakers := resilience.NewGroup(settings)

	cfg := testConfig(t.TempDir())
	cfg.Download.RetryMax = 0
	fs, err := NewLocal(cfg, nil, WithBreakers(breakers))
	require.NoError(t, err)
	ctx := context.Background()

	// client errors leave the host healthy
	for i := 0; i < 3; i++ {
		_, err := fs.Download(ctx, srv.URL+"/missing", "missing.epub")
		var status *StatusError
		require.ErrorAs(t, err, &status)
		assert.Equal(t, http.StatusNotFound, status.Code)
	}

	for i := 0; i < 2; i++ {
		_, err := fs.Download(ctx, srv.URL+"/down", "down.epub")
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}

	before := atomic.LoadInt32(&hits)
	_, err = fs.Download(ctx, srv.URL+"/missing", "missing.epub")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, atomic.LoadInt32(&hits))
}

func TestHostFailure(t *testing.T) {
	assert.True(t, hostFailure(&StatusError{Code: 503}))
	assert.True(t, hostFailure(&StatusError{Code: 429}))
	assert.False(t, hostFailure(&StatusError{Code: 404}))
	assert.False(t, hostFailure(ErrTooLarge))
	assert.False(t, hostFailure(context.Canceled))
	assert.True(t, hostFailure(io.ErrUnexpectedEOF))
}

func TestGlob(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a/one.epub", "a/b/two.epub", "three.txt"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	matches, err := Glob(root, "**/*.epub")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join("a", "one.epub"), filepath.Join("a", "b", "two.epub")}, matches)
}
