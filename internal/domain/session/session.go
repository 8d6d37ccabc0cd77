package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/bootstrap"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/reader"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/storage"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/id"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

var (
	// ErrNotReady is returned for commands sent while the source is still
	// being prepared or no sandbox is attached
	ErrNotReady = errors.New("reader not ready")
	// ErrSessionNotFound is returned for an unknown reader id
	ErrSessionNotFound = errors.New("session not found")
	// ErrBookmarkNotFound is returned when a bookmark id is not in the host list
	ErrBookmarkNotFound = errors.New("bookmark not found")
	// ErrMenuItemNotFound is returned for an unregistered selection menu label
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrNoSelection is returned when a menu item is chosen with nothing selected
	ErrNoSelection = errors.New("no text selected")
	// ErrNoLocation is returned when a bookmark is requested before the
	// renderer has reported any location
	ErrNoLocation = errors.New("no current location")
	// ErrClosed is returned for any operation on a closed session
	ErrClosed = errors.New("session closed")
	// ErrSessionLimit is returned by Open when MaxSessions are already open
	ErrSessionLimit = errors.New("session limit reached")
)

// Surface is the opaque command channel into a loaded sandbox
type Surface interface {
	Inject(ctx context.Context, script command.Script) error
}

// MenuItem is a custom entry of the text selection menu. Action receives
// the selected range and text; returning true clears the selection.
type MenuItem struct {
	Label  string
	Action func(cfiRange types.CFI, text string) bool
}

// Session is one open document: a state store, the dispatcher feeding it
// and the surface commands are injected through
type Session struct {
	id         id.ReaderID
	createdAt  time.Time
	store      *reader.Store
	dispatcher *dispatch.Dispatcher
	cache      storage.LocationsCache
	themes     *theme.Registry
	metrics    *monitoring.Metrics
	logger     *zap.Logger

	keepScrollOffset bool

	// mu guards everything below
	mu       sync.RWMutex
	surface  Surface
	attached uint64
	document bootstrap.Document
	source   Source
	cacheKey string
	menu     []MenuItem
	closed   bool
}

// ID returns the reader id
func (s *Session) ID() id.ReaderID { return s.id }

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current snapshot
func (s *Session) State() reader.State { return s.store.State() }

// Subscribe registers a listener for state transitions
func (s *Session) Subscribe(l reader.Listener) func() { return s.store.Subscribe(l) }

// IsBookmarked reports whether a bookmark covers the current location
func (s *Session) IsBookmarked() bool { return s.store.IsBookmarked() }

// Document returns the bootstrap document the sandbox must load
func (s *Session) Document() bootstrap.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// Source returns the prepared document source
func (s *Session) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// CacheKey returns the navigation index cache key of the source
func (s *Session) CacheKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheKey
}

// MenuItems returns the labels of the custom selection menu
func (s *Session) MenuItems() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, len(s.menu))
	for i, item := range s.menu {
		labels[i] = item.Label
	}
	return labels
}

// Attach binds the surface commands are injected through. Attaching again
// replaces the previous surface. The returned function detaches surface if
// it is still the attached one.
func (s *Session) Attach(surface Surface) func() {
	s.mu.Lock()
	s.surface = surface
	s.attached++
	generation := s.attached
	s.mu.Unlock()
	s.logger.Debug("Surface attached", zap.String("reader_id", s.id.String()))

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.attached == generation {
			s.surface = nil
		}
	}
}

// Attached reports whether a surface is bound
func (s *Session) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surface != nil
}

// HandleMessage applies one serialized inbound event. Events must be passed
// in arrival order.
func (s *Session) HandleMessage(ctx context.Context, data []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.dispatcher.Dispatch(ctx, data)
}

// Inject sends a follow-up command without the readiness gate. The
// dispatcher uses it while reacting to renderer events.
func (s *Session) Inject(ctx context.Context, script command.Script) error {
	s.mu.RLock()
	surface, closed := s.surface, s.closed
	s.mu.RUnlock()

	switch {
	case closed:
		return ErrClosed
	case surface == nil:
		return ErrNotReady
	}
	return s.deliver(ctx, surface, script)
}

// send injects a host command. Commands are refused while the source is
// loading or no surface is attached; they are allowed while rendering.
func (s *Session) send(ctx context.Context, script command.Script) error {
	s.mu.RLock()
	surface, closed := s.surface, s.closed
	s.mu.RUnlock()

	switch {
	case closed:
		return ErrClosed
	case surface == nil, s.store.State().IsLoading:
		return ErrNotReady
	}
	return s.deliver(ctx, surface, script)
}

func (s *Session) deliver(ctx context.Context, surface Surface, script command.Script) error {
	timer := monitoring.NewTimer(s.metrics, string(script.Intent))
	err := surface.Inject(ctx, script)
	timer.Stop(monitoring.StatusOf(err))
	if err != nil {
		s.logger.Warn("Command not delivered",
			zap.String("reader_id", s.id.String()),
			zap.String("intent", string(script.Intent)),
			zap.Error(err))
		return fmt.Errorf("inject %s: %w", script.Intent, err)
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.surface = nil
	s.mu.Unlock()
}

func (s *Session) paginate(keep *bool) command.PaginateOptions {
	opts := command.PaginateOptions{KeepScrollOffset: s.keepScrollOffset}
	if keep != nil {
		opts.KeepScrollOffset = *keep
	}
	return opts
}

// GoNext moves to the next page. keep overrides the session's scroll
// offset default for this move.
func (s *Session) GoNext(ctx context.Context, keep *bool) error {
	return s.send(ctx, command.Next(s.store.State().Flow, s.paginate(keep)))
}

// GoPrevious moves to the previous page
func (s *Session) GoPrevious(ctx context.Context, keep *bool) error {
	return s.send(ctx, command.Previous(s.store.State().Flow, s.paginate(keep)))
}

// GoToLocation displays target, which may be a CFI, an href or a chapter name
func (s *Session) GoToLocation(ctx context.Context, target types.CFI, keep *bool) error {
	if target.Empty() {
		return fmt.Errorf("%w: target is required", utils.ErrInvalidInput)
	}
	return s.send(ctx, command.GoTo(target, s.store.State().Flow, s.paginate(keep)))
}

// ChangeTheme applies rules and records them
func (s *Session) ChangeTheme(ctx context.Context, rules types.Theme) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: theme must not be empty", utils.ErrInvalidInput)
	}
	rules = rules.Clone()
	if err := s.send(ctx, command.ChangeTheme(rules)); err != nil {
		return err
	}
	s.store.Dispatch(reader.ThemeChanged{Theme: rules})
	return nil
}

// ChangeThemeByName applies a theme from the registry
func (s *Session) ChangeThemeByName(ctx context.Context, name string) error {
	if s.themes == nil {
		return fmt.Errorf("%w: %s", theme.ErrNotFound, name)
	}
	rules, err := s.themes.Theme(name)
	if err != nil {
		return err
	}
	return s.ChangeTheme(ctx, rules)
}

// ChangeFontFamily sets the document font family
func (s *Session) ChangeFontFamily(ctx context.Context, family string) error {
	if err := utils.ValidateFontFamily(family); err != nil {
		return err
	}
	if err := s.send(ctx, command.ChangeFontFamily(family)); err != nil {
		return err
	}
	s.store.Dispatch(reader.FontFamilyChanged{FontFamily: family})
	return nil
}

// ChangeFontSize sets the document font size, e.g. "14pt"
func (s *Session) ChangeFontSize(ctx context.Context, size types.FontSize) error {
	if err := utils.ValidateString(string(size), "fontSize", 1, 32, true); err != nil {
		return err
	}
	if err := s.send(ctx, command.ChangeFontSize(size)); err != nil {
		return err
	}
	s.store.Dispatch(reader.FontSizeChanged{FontSize: size})
	return nil
}

// ChangeFlow switches the layout discipline
func (s *Session) ChangeFlow(ctx context.Context, flow types.Flow) error {
	if !flow.Valid() {
		return fmt.Errorf("%w: unknown flow %q", utils.ErrInvalidInput, flow)
	}
	if err := s.send(ctx, command.ChangeFlow(flow)); err != nil {
		return err
	}
	s.store.Dispatch(reader.FlowChanged{Flow: flow})
	return nil
}

// Search starts a paginated search. Results arrive through onSearch.
func (s *Session) Search(ctx context.Context, q command.SearchQuery) error {
	if err := utils.ValidateSearchTerm(q.Term); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrClosed
	}
	if !s.Attached() || s.store.State().IsLoading {
		return ErrNotReady
	}

	// marked before injecting: the sandbox may answer before Inject returns
	s.store.Dispatch(reader.SearchStarted{})
	if err := s.send(ctx, command.Search(q)); err != nil {
		s.store.Dispatch(reader.SearchingChanged{IsSearching: false})
		return err
	}
	return nil
}

// ClearSearchResults empties the host-held results
func (s *Session) ClearSearchResults() {
	s.store.Dispatch(reader.SearchResultsReplaced{Results: types.SearchResults{}})
}

// AddAnnotation decorates a range
func (s *Session) AddAnnotation(ctx context.Context, a types.Annotation) error {
	if err := validateAnnotation(a.Type, a.Data); err != nil {
		return err
	}
	if a.CfiRange.Empty() {
		return fmt.Errorf("%w: cfiRange is required", utils.ErrInvalidInput)
	}
	return s.send(ctx, command.AddAnnotation(a))
}

// AddAnnotationByTagID decorates the element with the given id
func (s *Session) AddAnnotationByTagID(ctx context.Context, t types.AnnotationType, tagID string, data map[string]interface{}, iconClass string, styles *types.AnnotationStyles) error {
	if err := validateAnnotation(t, data); err != nil {
		return err
	}
	if err := utils.ValidateTagID(tagID); err != nil {
		return err
	}
	return s.send(ctx, command.AddAnnotationByTagID(t, tagID, data, iconClass, styles))
}

// UpdateAnnotation replaces the data and styles of an existing annotation
func (s *Session) UpdateAnnotation(ctx context.Context, a types.Annotation, data map[string]interface{}, styles *types.AnnotationStyles) error {
	if err := utils.ValidateData(data); err != nil {
		return err
	}
	return s.send(ctx, command.UpdateAnnotation(a, data, styles))
}

// UpdateAnnotationByTagID updates the annotation on the element with the given id
func (s *Session) UpdateAnnotationByTagID(ctx context.Context, tagID string, data map[string]interface{}, styles *types.AnnotationStyles) error {
	if err := utils.ValidateTagID(tagID); err != nil {
		return err
	}
	if err := utils.ValidateData(data); err != nil {
		return err
	}
	return s.send(ctx, command.UpdateAnnotationByTagID(tagID, data, styles))
}

// RemoveAnnotation removes one annotation by identity
func (s *Session) RemoveAnnotation(ctx context.Context, a types.Annotation) error {
	return s.send(ctx, command.RemoveAnnotation(a))
}

// RemoveAnnotationByCfi removes every annotation over cfiRange
func (s *Session) RemoveAnnotationByCfi(ctx context.Context, cfiRange types.CFI) error {
	if cfiRange.Empty() {
		return fmt.Errorf("%w: cfiRange is required", utils.ErrInvalidInput)
	}
	return s.send(ctx, command.RemoveAnnotationByCfi(cfiRange))
}

// RemoveAnnotationByTagID removes the annotation on the element with the given id
func (s *Session) RemoveAnnotationByTagID(ctx context.Context, tagID string) error {
	if err := utils.ValidateTagID(tagID); err != nil {
		return err
	}
	return s.send(ctx, command.RemoveAnnotationByTagID(tagID))
}

// RemoveAnnotations removes every annotation, or only those of type t
func (s *Session) RemoveAnnotations(ctx context.Context, t types.AnnotationType) error {
	if t != "" && !t.Valid() {
		return fmt.Errorf("%w: unknown annotation type %q", utils.ErrInvalidInput, t)
	}
	return s.send(ctx, command.RemoveAllAnnotations(t))
}

// AddBookmark bookmarks location, or the current location when nil
func (s *Session) AddBookmark(ctx context.Context, location *types.Location, data map[string]interface{}) error {
	if err := utils.ValidateData(data); err != nil {
		return err
	}
	if location == nil {
		location = s.store.State().CurrentLocation
	}
	if location == nil {
		return ErrNoLocation
	}
	return s.send(ctx, command.AddBookmark(*location, data))
}

// RemoveBookmark removes a bookmark held by the host
func (s *Session) RemoveBookmark(ctx context.Context, bookmarkID int64) error {
	b, ok := s.store.Bookmark(bookmarkID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrBookmarkNotFound, bookmarkID)
	}
	return s.send(ctx, command.RemoveBookmark(b))
}

// RemoveBookmarks clears every bookmark
func (s *Session) RemoveBookmarks(ctx context.Context) error {
	return s.send(ctx, command.RemoveBookmarks())
}

// UpdateBookmark replaces the data of the bookmark with the given id
func (s *Session) UpdateBookmark(ctx context.Context, bookmarkID int64, data map[string]interface{}) error {
	if err := utils.ValidateData(data); err != nil {
		return err
	}
	b, ok := s.store.Bookmark(bookmarkID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrBookmarkNotFound, bookmarkID)
	}
	b.Data = data
	return s.send(ctx, command.UpdateBookmark(b))
}

// RemoveSelection clears the text selection in the sandbox and the host
func (s *Session) RemoveSelection(ctx context.Context) error {
	if err := s.send(ctx, command.ClearSelection()); err != nil {
		return err
	}
	s.store.Dispatch(reader.SelectionChanged{Selection: nil})
	return nil
}

// InjectJavaScript runs host-supplied JavaScript in the sandbox
func (s *Session) InjectJavaScript(ctx context.Context, script string) error {
	if err := utils.ValidateScript(script); err != nil {
		return err
	}
	return s.send(ctx, command.Raw(script))
}

// SelectMenuItem runs the custom menu action registered under label against
// the current selection
func (s *Session) SelectMenuItem(ctx context.Context, label string) error {
	if err := utils.ValidateLabel(label); err != nil {
		return err
	}

	s.mu.RLock()
	var item *MenuItem
	for i := range s.menu {
		if s.menu[i].Label == label {
			item = &s.menu[i]
			break
		}
	}
	s.mu.RUnlock()
	if item == nil {
		return fmt.Errorf("%w: %s", ErrMenuItemNotFound, label)
	}

	sel := s.store.State().Selection
	if sel == nil {
		return ErrNoSelection
	}
	if item.Action != nil && item.Action(sel.CfiRange, sel.Text) {
		return s.RemoveSelection(ctx)
	}
	return nil
}

// onLocationsReady writes a generated index back to the cache
func (s *Session) onLocationsReady(ctx context.Context, index types.NavigationIndex) {
	key := s.CacheKey()
	if s.cache == nil || key == "" || index.Empty() {
		return
	}
	if err := s.cache.Save(ctx, key, index); err != nil {
		s.logger.Warn("Failed to cache navigation index",
			zap.String("reader_id", s.id.String()),
			zap.Error(err))
		return
	}
	s.logger.Debug("Cached navigation index",
		zap.String("reader_id", s.id.String()),
		zap.Int("locations", len(index.Locations)))
}

func validateAnnotation(t types.AnnotationType, data map[string]interface{}) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown annotation type %q", utils.ErrInvalidInput, t)
	}
	return utils.ValidateData(data)
}
