package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/providers/filesystem"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// ErrInvalidSource is returned for a source that cannot be opened
var ErrInvalidSource = errors.New("invalid source")

// minInlineLength keeps short extensionless paths from being read as base64
const minInlineLength = 64

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// Source is a document source prepared for the renderer
type Source struct {
	// Origin is the locator the host asked for; cache keys derive from it
	Origin string           `json:"origin"`
	Kind   types.SourceKind `json:"kind"`
	// Locator is what the renderer is told to open. Empty until the session
	// assigns a route when the source is a local file.
	Locator string `json:"locator"`
	// Path is the local file backing the source, if any
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Local reports whether the renderer has to fetch the source from the host
func (s Source) Local() bool {
	return s.Path != ""
}

// SourcePreparer turns a host-supplied locator into something the renderer
// can open: inline data, a remote document or a local file
type SourcePreparer struct {
	fs     filesystem.FileSystem
	logger *zap.Logger
}

// NewSourcePreparer creates a preparer. fs may be nil, in which case only
// inline and directly referenced remote sources can be prepared.
func NewSourcePreparer(fs filesystem.FileSystem, logger *zap.Logger) *SourcePreparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourcePreparer{fs: fs, logger: logger}
}

// Prepare resolves src. Remote .epub and .opf documents are referenced
// directly; any other remote document is downloaded and sniffed.
func (p *SourcePreparer) Prepare(ctx context.Context, src string) (Source, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Source{}, fmt.Errorf("%w: empty source", ErrInvalidSource)
	}

	if payload, ok := dataURLPayload(src); ok {
		return Source{Origin: src, Kind: types.SourceBase64, Locator: payload}, nil
	}

	if u, ok := remoteURL(src); ok {
		return p.prepareRemote(ctx, src, u)
	}

	if strings.HasPrefix(src, "file://") {
		u, err := url.Parse(src)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
		}
		return p.prepareLocal(ctx, src, u.Path)
	}

	if looksBase64(src) {
		return Source{Origin: src, Kind: types.SourceBase64, Locator: src}, nil
	}

	return p.prepareLocal(ctx, src, src)
}

func (p *SourcePreparer) prepareRemote(ctx context.Context, src string, u *url.URL) (Source, error) {
	switch kindByExtension(u.Path) {
	case types.SourceEPUB:
		return Source{Origin: src, Kind: types.SourceEPUB, Locator: src}, nil
	case types.SourceOPF:
		return Source{Origin: src, Kind: types.SourceOPF, Locator: src}, nil
	}

	if p.fs == nil {
		return Source{}, fmt.Errorf("%w: no file system to download %s", ErrInvalidSource, src)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = ""
	}
	local, err := p.fs.Download(ctx, src, name)
	if err != nil {
		return Source{}, fmt.Errorf("download source: %w", err)
	}

	source, err := p.describe(ctx, src, local)
	if err != nil {
		return Source{}, err
	}
	p.logger.Info("Prepared remote source",
		zap.String("url", src),
		zap.String("path", source.Path),
		zap.String("kind", string(source.Kind)),
		zap.String("mime", source.MimeType))
	return source, nil
}

func (p *SourcePreparer) prepareLocal(ctx context.Context, origin, localPath string) (Source, error) {
	if p.fs == nil {
		return Source{}, fmt.Errorf("%w: no file system to read %s", ErrInvalidSource, origin)
	}
	return p.describe(ctx, origin, localPath)
}

func (p *SourcePreparer) describe(ctx context.Context, origin, localPath string) (Source, error) {
	info, err := p.fs.Stat(ctx, localPath)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	kind := kindByExtension(info.Path)
	if kind == "" {
		kind = types.SourceKind(filesystem.SourceKindFor(info.MimeType))
	}
	return Source{
		Origin:   origin,
		Kind:     kind,
		Path:     info.Path,
		MimeType: info.MimeType,
	}, nil
}

// dataURLPayload extracts the payload of a base64 data URL
func dataURLPayload(src string) (string, bool) {
	if !strings.HasPrefix(src, "data:") {
		return "", false
	}
	header, payload, found := strings.Cut(src, ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", false
	}
	return payload, true
}

func remoteURL(src string) (*url.URL, bool) {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, u.Scheme == "http" || u.Scheme == "https"
}

func looksBase64(src string) bool {
	return len(src) >= minInlineLength && len(src)%4 == 0 && base64Pattern.MatchString(src)
}

func kindByExtension(p string) types.SourceKind {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".epub":
		return types.SourceEPUB
	case ".opf":
		return types.SourceOPF
	}
	return ""
}
