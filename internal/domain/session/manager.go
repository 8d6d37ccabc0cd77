package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/bootstrap"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/reader"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/filesystem"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/storage"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// Defaults are the reader options applied when an open request leaves them unset
type Defaults struct {
	Flow                  types.Flow
	Manager               types.Manager
	CharactersPerLocation int
	EnableSelection       bool
	AllowScriptedContent  bool
	AllowPopups           bool
	WaitForLocationsReady bool
	KeepScrollOffset      bool
}

// Config configures a Manager
type Config struct {
	// ScriptURIs are the renderer scripts every bootstrap document loads
	ScriptURIs []string
	Defaults   Defaults
	// SourceRoute returns the URL a sandbox fetches a local source from
	SourceRoute func(id.ReaderID) string
	// MaxSessions bounds the number of open sessions; zero means unbounded
	MaxSessions  int
	MaxEventSize int
}

// DefaultSourceRoute serves local sources from the reader's own API path
func DefaultSourceRoute(readerID id.ReaderID) string {
	return "/readers/" + readerID.String() + "/source"
}

// Manager orchestrates session lifecycle
type Manager struct {
	mu       sync.RWMutex
	sessions map[id.ReaderID]*Session

	cfg      Config
	sources  *SourcePreparer
	cache    storage.LocationsCache
	themes   *theme.Registry
	injector *bootstrap.Injector
	keys     *utils.SourceIdentifier
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewManager creates a session manager. fs, cache and themes are optional.
func NewManager(cfg Config, fs filesystem.FileSystem, cache storage.LocationsCache, themes *theme.Registry) *Manager {
	if cfg.SourceRoute == nil {
		cfg.SourceRoute = DefaultSourceRoute
	}
	return &Manager{
		sessions: make(map[id.ReaderID]*Session),
		cfg:      cfg,
		sources:  NewSourcePreparer(fs, nil),
		cache:    cache,
		themes:   themes,
		injector: bootstrap.Default(),
		keys:     utils.NewSourceIdentifier(nil),
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	m.logger = logger
	m.sources.logger = logger
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// OpenOption customizes a single session
type OpenOption func(*openOptions)

type openOptions struct {
	handlers dispatch.Handlers
	menu     []MenuItem
}

// WithHandlers sets the host callbacks of the session
func WithHandlers(h dispatch.Handlers) OpenOption {
	return func(o *openOptions) { o.handlers = h }
}

// WithMenuItems registers custom selection menu entries. Registering any
// item turns text selection on.
func WithMenuItems(items ...MenuItem) OpenOption {
	return func(o *openOptions) { o.menu = append(o.menu, items...) }
}

// Open prepares the source of req and builds its bootstrap document. The
// session stays loading until both are done; a failed open leaves nothing
// registered.
func (m *Manager) Open(ctx context.Context, req types.OpenRequest, options ...OpenOption) (*Session, error) {
	var oo openOptions
	for _, o := range options {
		o(&oo)
	}

	if err := m.validate(req); err != nil {
		return nil, err
	}

	rules, err := m.resolveTheme(req)
	if err != nil {
		return nil, err
	}

	flow := req.Flow
	if flow == "" {
		flow = m.cfg.Defaults.Flow
	}
	keep := m.cfg.Defaults.KeepScrollOffset || req.KeepScrollOffset

	s := &Session{
		id:        id.NewReaderID(),
		createdAt: time.Now(),
		store: reader.NewStore(reader.InitialOptions{
			Theme:       rules,
			Bookmarks:   req.InitialBookmarks,
			Annotations: req.InitialAnnotations,
			Flow:        flow,
		}),
		cache:            m.cache,
		themes:           m.themes,
		metrics:          m.metrics,
		logger:           m.logger,
		keepScrollOffset: keep,
		menu:             oo.menu,
	}
	s.dispatcher = m.newDispatcher(s, req, oo.handlers)

	if err := m.reserve(s); err != nil {
		return nil, err
	}
	if err := m.load(ctx, s, req, rules, len(oo.menu) > 0); err != nil {
		m.release(s.id)
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.IncSessionsOpened()
	}
	m.logger.Info("Reader opened",
		zap.String("reader_id", s.id.String()),
		zap.String("kind", string(s.Source().Kind)))
	return s, nil
}

func (m *Manager) validate(req types.OpenRequest) error {
	if err := utils.ValidateString(req.Src, "src", 1, utils.MaxSourceLength, true); err != nil {
		return err
	}
	if req.Flow != "" && !req.Flow.Valid() {
		return fmt.Errorf("%w: unknown flow %q", utils.ErrInvalidInput, req.Flow)
	}
	for _, a := range req.InitialAnnotations {
		if err := validateAnnotation(a.Type, a.Data); err != nil {
			return fmt.Errorf("initial annotation: %w", err)
		}
	}
	return nil
}

func (m *Manager) resolveTheme(req types.OpenRequest) (types.Theme, error) {
	if len(req.Theme) > 0 {
		return req.Theme.Clone(), nil
	}
	if m.themes == nil {
		if req.ThemeName != "" && req.ThemeName != theme.DefaultID {
			return nil, fmt.Errorf("%w: %s", theme.ErrNotFound, req.ThemeName)
		}
		return types.DefaultTheme(), nil
	}
	return m.themes.Theme(req.ThemeName)
}

func (m *Manager) newDispatcher(s *Session, req types.OpenRequest, host dispatch.Handlers) *dispatch.Dispatcher {
	handlers := host
	handlers.OnLocationsReady = func(key string, index types.NavigationIndex) {
		s.onLocationsReady(context.Background(), index)
		if host.OnLocationsReady != nil {
			host.OnLocationsReady(key, index)
		}
	}

	wait := m.cfg.Defaults.WaitForLocationsReady
	if req.WaitForLocationsReady != nil {
		wait = *req.WaitForLocationsReady
	}

	options := []dispatch.Option{dispatch.WithLogger(s.logger)}
	if m.metrics != nil {
		options = append(options, dispatch.WithRecorder(m.metrics))
	}
	return dispatch.New(s.store, s, handlers, dispatch.Options{
		WaitForLocationsReady: wait,
		InjectedJavaScript:    req.InjectedJavaScript,
		MaxEventSize:          m.cfg.MaxEventSize,
	}, options...)
}

func (m *Manager) load(ctx context.Context, s *Session, req types.OpenRequest, rules types.Theme, hasMenu bool) error {
	source, err := m.sources.Prepare(ctx, req.Src)
	if err != nil {
		return err
	}
	if source.Local() {
		source.Locator = m.cfg.SourceRoute(s.id)
	}
	if m.metrics != nil {
		m.metrics.RecordSource(string(source.Kind))
	}

	perLocation := req.CharactersPerLocation
	if perLocation <= 0 {
		perLocation = m.cfg.Defaults.CharactersPerLocation
	}
	if perLocation <= 0 {
		perLocation = bootstrap.DefaultCharactersPerLocation
	}
	key := m.keys.CacheKey(source.Origin, perLocation)

	index := m.cachedIndex(ctx, key)
	if !index.Empty() {
		s.store.Dispatch(
			reader.LocationsChanged{Locations: index.Locations},
			reader.TotalLocationsChanged{TotalLocations: index.TotalLocations},
			reader.BookKeyChanged{BookKey: index.BookKey},
		)
	}

	manager := req.Manager
	if manager == "" {
		manager = m.cfg.Defaults.Manager
	}
	doc, err := m.injector.Build(bootstrap.Config{
		ScriptURIs:            m.cfg.ScriptURIs,
		SourceKind:            string(source.Kind),
		Source:                source.Locator,
		Theme:                 rules,
		Locations:             index.Locations,
		InitialAnnotations:    req.InitialAnnotations,
		InitialLocation:       req.InitialLocation,
		EnableSelection:       hasMenu || boolOr(req.EnableSelection, m.cfg.Defaults.EnableSelection),
		AllowScriptedContent:  boolOr(req.AllowScriptedContent, m.cfg.Defaults.AllowScriptedContent),
		AllowPopups:           boolOr(req.AllowPopups, m.cfg.Defaults.AllowPopups),
		Manager:               manager,
		Flow:                  s.store.State().Flow,
		Snap:                  req.Snap,
		Spread:                req.Spread,
		Fullsize:              req.Fullsize,
		CharactersPerLocation: perLocation,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.source = source
	s.cacheKey = key
	s.document = doc
	s.mu.Unlock()

	s.store.Dispatch(reader.LoadingChanged{IsLoading: false})
	return nil
}

// cachedIndex returns the cached navigation index for key, or an empty
// index. Cache failures only cost a regeneration.
func (m *Manager) cachedIndex(ctx context.Context, key string) types.NavigationIndex {
	if m.cache == nil {
		return types.NavigationIndex{}
	}
	index, ok, err := m.cache.Load(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn("Navigation index lookup failed", zap.Error(err))
		m.recordLookup("error")
		return types.NavigationIndex{}
	case !ok:
		m.recordLookup("miss")
		return types.NavigationIndex{}
	}
	m.recordLookup("hit")
	return index
}

func (m *Manager) recordLookup(result string) {
	if m.metrics != nil {
		m.metrics.RecordCacheLookup(result)
	}
}

func (m *Manager) reserve(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return fmt.Errorf("%w: limit of %d reached", ErrSessionLimit, m.cfg.MaxSessions)
	}
	m.sessions[s.id] = s
	m.updateGauge()
	return nil
}

func (m *Manager) release(readerID id.ReaderID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[readerID]
	if !ok {
		return nil
	}
	delete(m.sessions, readerID)
	m.updateGauge()
	return s
}

// updateGauge must be called with mu held
func (m *Manager) updateGauge() {
	if m.metrics != nil {
		m.metrics.SetSessionsActive(len(m.sessions))
	}
}

// Get retrieves a session by id
func (m *Manager) Get(readerID id.ReaderID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[readerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, readerID)
	}
	return s, nil
}

// List returns every open session, oldest first
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].id < list[j].id })
	return list
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes a session. Further commands on it fail with ErrClosed.
func (m *Manager) Close(readerID id.ReaderID) error {
	s := m.release(readerID)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, readerID)
	}
	s.close()
	m.logger.Info("Reader closed", zap.String("reader_id", readerID.String()))
	return nil
}

// CloseAll closes every session
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		_ = m.Close(s.id)
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
