package dispatch

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/reader"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// Commander injects follow-up commands into the sandbox
type Commander interface {
	Inject(ctx context.Context, script command.Script) error
}

// Recorder receives dispatch metrics
type Recorder interface {
	RecordEvent(kind string)
	RecordDecodeError(kind string)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string)       {}
func (nopRecorder) RecordDecodeError(string) {}

// Handlers are the host callbacks. Every field is optional.
type Handlers struct {
	OnStarted           func()
	OnReady             func(Ready)
	OnDisplayError      func(reason string)
	OnResized           func(types.Layout)
	OnLocationChange    func(LocationChange)
	OnChangeSection     func(section *types.Section)
	OnLocationsReady    func(key string, index types.NavigationIndex)
	OnSearch            func(types.SearchResults)
	OnSelected          func(types.Selection)
	OnOrientationChange func(orientation interface{})
	OnBeginning         func()
	OnFinish            func()
	OnRendered          func(Rendered)
	OnLayout            func(types.Layout)
	OnNavigationLoaded  func(types.Toc, []types.Landmark)
	OnMeta              func(types.Metadata)
	OnAddAnnotation     func(types.Annotation)
	OnChangeAnnotations func([]types.Annotation)
	OnPressAnnotation   func(types.Annotation)
	OnAddBookmark       func(types.Bookmark)
	OnRemoveBookmark    func(types.Bookmark)
	OnUpdateBookmark    func(types.Bookmark)
	OnChangeBookmarks   func([]types.Bookmark)

	// OnMessage receives event kinds the host does not model
	OnMessage func(Unknown)
	// OnDecodeError is told about every dropped message
	OnDecodeError func(error)
}

// Options configures a dispatcher
type Options struct {
	// WaitForLocationsReady keeps rendering set after onReady until a
	// navigation index is available
	WaitForLocationsReady bool
	// InjectedJavaScript runs once the renderer reports ready
	InjectedJavaScript string
	// MaxEventSize bounds a single inbound message, in bytes
	MaxEventSize int
}

// DefaultMaxEventSize fits a cover image encoded as a data URL
const DefaultMaxEventSize = 8 * 1024 * 1024

// Dispatcher routes inbound events to store transitions and host callbacks.
// Events are handled one at a time in arrival order.
type Dispatcher struct {
	mu        sync.Mutex
	store     *reader.Store
	commander Commander
	handlers  Handlers
	opts      Options
	logger    *zap.Logger
	metrics   Recorder
	sanitizer *bluemonday.Policy
	sizeCheck *utils.JSONSizeValidator
}

// Option customizes a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.metrics = r }
}

// New creates a dispatcher over store. commander may be nil when the host
// never needs follow-up commands.
func New(store *reader.Store, commander Commander, handlers Handlers, opts Options, options ...Option) *Dispatcher {
	if opts.MaxEventSize <= 0 {
		opts.MaxEventSize = DefaultMaxEventSize
	}
	d := &Dispatcher{
		store:     store,
		commander: commander,
		handlers:  handlers,
		opts:      opts,
		logger:    zap.NewNop(),
		metrics:   nopRecorder{},
		sanitizer: bluemonday.UGCPolicy(),
		sizeCheck: utils.NewJSONSizeValidator(opts.MaxEventSize),
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// Dispatch decodes and applies one message. A malformed message is dropped
// and reported; the returned error is a *DecodeError.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.sizeCheck.ValidateSize(data); err != nil {
		return d.dropped(&DecodeError{Err: err})
	}

	ev, err := Decode(data)
	if err != nil {
		return d.dropped(err)
	}

	d.metrics.RecordEvent(string(ev.Kind()))
	d.apply(ctx, ev)
	return nil
}

func (d *Dispatcher) dropped(err error) error {
	kind := ""
	var de *DecodeError
	if errors.As(err, &de) {
		kind = string(de.Kind)
	}
	d.metrics.RecordDecodeError(kind)
	d.logger.Warn("Dropped inbound message", zap.String("kind", kind), zap.Error(err))
	if d.handlers.OnDecodeError != nil {
		d.handlers.OnDecodeError(err)
	}
	return err
}

func (d *Dispatcher) inject(ctx context.Context, script command.Script) {
	if d.commander == nil {
		return
	}
	if err := d.commander.Inject(ctx, script); err != nil {
		d.logger.Warn("Follow-up command not delivered",
			zap.String("intent", string(script.Intent)),
			zap.Error(err))
	}
}

func (d *Dispatcher) apply(ctx context.Context, ev Event) {
	h := d.handlers

	switch e := ev.(type) {
	case Started:
		state := d.store.Dispatch(
			reader.RenderingChanged{IsRendering: true},
			reader.DisplayErrorOccurred{},
		)
		d.inject(ctx, command.ChangeTheme(state.Theme))
		if h.OnStarted != nil {
			h.OnStarted()
		}

	case Ready:
		progress := clampProgress(e.Progress)
		if e.CurrentLocation != nil {
			progress = hostProgress(d.store.State().Index(), *e.CurrentLocation, e.Progress)
		}
		actions := []reader.Action{
			reader.TotalLocationsChanged{TotalLocations: e.TotalLocations},
			reader.ProgressChanged{Progress: progress},
		}
		if e.CurrentLocation != nil {
			actions = append(actions, reader.LocationChanged{Location: e.CurrentLocation})
		}
		if !d.opts.WaitForLocationsReady || len(d.store.State().Locations) > 0 {
			actions = append(actions, reader.RenderingChanged{IsRendering: false})
		}
		d.store.Dispatch(actions...)
		if d.opts.InjectedJavaScript != "" {
			d.inject(ctx, command.Raw(d.opts.InjectedJavaScript))
		}
		if h.OnReady != nil {
			h.OnReady(e)
		}

	case DisplayError:
		reason := e.Reason
		if reason == "" {
			reason = "unknown display error"
		}
		d.store.Dispatch(reader.DisplayErrorOccurred{Reason: reason})
		d.logger.Warn("Sandbox reported display error", zap.String("reason", e.Reason))
		if h.OnDisplayError != nil {
			h.OnDisplayError(e.Reason)
		}

	case Resized:
		if h.OnResized != nil {
			h.OnResized(e.Layout)
		}

	case LocationChange:
		prev := d.store.State()
		loc := e.CurrentLocation
		next := d.store.Dispatch(reader.Relocated{
			Location:       loc,
			Progress:       hostProgress(prev.Index(), loc, e.Progress),
			TotalLocations: e.TotalLocations,
			Section:        e.CurrentSection,
		})
		if !types.SameHref(prev.Section, next.Section) && h.OnChangeSection != nil {
			h.OnChangeSection(next.Section)
		}
		if h.OnLocationChange != nil {
			h.OnLocationChange(e)
		}

	case LocationsReady:
		index := types.NavigationIndex{
			Locations:      []types.CFI(e.Locations),
			TotalLocations: e.TotalLocations,
			BookKey:        e.EpubKey,
		}
		actions := []reader.Action{reader.LocationsReady{
			Index:           index,
			CurrentLocation: e.CurrentLocation,
			Progress:        clampProgress(e.Progress),
		}}
		if d.opts.WaitForLocationsReady {
			actions = append(actions, reader.RenderingChanged{IsRendering: false})
		}
		d.store.Dispatch(actions...)
		if h.OnLocationsReady != nil {
			h.OnLocationsReady(e.EpubKey, index)
		}

	case Search:
		results := types.SearchResults{Results: e.Results, TotalResults: e.TotalResults}
		d.store.Dispatch(reader.SearchResultsReplaced{Results: results})
		if h.OnSearch != nil {
			h.OnSearch(results)
		}

	case Selected:
		sel := types.Selection{CfiRange: e.CfiRange, Text: e.Text}
		d.store.Dispatch(reader.SelectionChanged{Selection: &sel})
		if h.OnSelected != nil {
			h.OnSelected(sel)
		}

	case OrientationChange:
		if h.OnOrientationChange != nil {
			h.OnOrientationChange(e.Orientation)
		}

	case Beginning:
		d.store.Dispatch(reader.AtStartChanged{AtStart: true})
		if h.OnBeginning != nil {
			h.OnBeginning()
		}

	case Finish:
		d.store.Dispatch(reader.AtEndChanged{AtEnd: true})
		if h.OnFinish != nil {
			h.OnFinish()
		}

	case Rendered:
		if h.OnRendered != nil {
			h.OnRendered(e)
		}

	case Layout:
		if h.OnLayout != nil {
			h.OnLayout(e.Layout)
		}

	case NavigationLoaded:
		d.store.Dispatch(reader.NavigationLoaded{Toc: e.Toc, Landmarks: e.Landmarks})
		if h.OnNavigationLoaded != nil {
			h.OnNavigationLoaded(e.Toc, e.Landmarks)
		}

	case Meta:
		meta := e.Metadata
		meta.Description = d.sanitizer.Sanitize(meta.Description)
		d.store.Dispatch(reader.MetadataLoaded{Meta: meta})
		if h.OnMeta != nil {
			h.OnMeta(meta)
		}

	case AddAnnotation:
		if h.OnAddAnnotation != nil {
			h.OnAddAnnotation(e.Annotation)
		}

	case ChangeAnnotations:
		d.store.Dispatch(reader.AnnotationsReplaced{Annotations: e.Annotations})
		if h.OnChangeAnnotations != nil {
			h.OnChangeAnnotations(d.store.State().Annotations)
		}

	case SetInitialAnnotations:
		d.store.Dispatch(reader.AnnotationsReplaced{Annotations: e.Annotations})

	case PressAnnotation:
		if h.OnPressAnnotation != nil {
			h.OnPressAnnotation(e.Annotation)
		}

	case AddBookmark:
		state := d.store.Dispatch(reader.BookmarkAdded{Bookmark: e.Bookmark})
		if h.OnAddBookmark != nil {
			h.OnAddBookmark(e.Bookmark)
		}
		d.bookmarksChanged(state)

	case RemoveBookmark:
		state := d.store.Dispatch(reader.BookmarkRemoved{ID: e.Bookmark.ID})
		if h.OnRemoveBookmark != nil {
			h.OnRemoveBookmark(e.Bookmark)
		}
		d.bookmarksChanged(state)

	case RemoveBookmarks:
		state := d.store.Dispatch(reader.BookmarksReplaced{Bookmarks: []types.Bookmark{}})
		d.bookmarksChanged(state)

	case UpdateBookmark:
		state := d.store.Dispatch(reader.BookmarkUpdated{Bookmark: e.Bookmark})
		if h.OnUpdateBookmark != nil {
			h.OnUpdateBookmark(e.Bookmark)
		}
		d.bookmarksChanged(state)

	case Unknown:
		if h.OnMessage != nil {
			h.OnMessage(e)
		}

	default:
		d.logger.Error("Unroutable event", zap.String("kind", string(ev.Kind())))
	}
}

func (d *Dispatcher) bookmarksChanged(state reader.State) {
	if d.handlers.OnChangeBookmarks != nil {
		d.handlers.OnChangeBookmarks(state.Bookmarks)
	}
}

// hostProgress resolves the progress for a relocation. The renderer reports
// 0 until its own locations exist; when the host already holds an index the
// position is computed from it instead.
func hostProgress(index types.NavigationIndex, loc types.Location, reported float64) float64 {
	if index.Empty() {
		return clampProgress(reported)
	}
	if math.IsNaN(reported) || reported < 0 || reported > 1 || (reported == 0 && !loc.AtStart) {
		return index.Progress(loc.Start.CFI)
	}
	return reported
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
