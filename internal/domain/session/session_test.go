package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/command"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/storage"
	"github.com/GriffinCanCode/ReaderBridge/internal/providers/theme"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

type mockSurface struct {
	mock.Mock
}

func (m *mockSurface) Inject(ctx context.Context, script command.Script) error {
	args := m.Called(ctx, script)
	return args.Error(0)
}

func intent(i command.Intent) interface{} {
	return mock.MatchedBy(func(s command.Script) bool { return s.Intent == i })
}

var inlineBook = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("epub"), 30))

type fixture struct {
	manager *Manager
	cache   *storage.MemoryCache
	themes  *theme.Registry
	metrics *monitoring.Metrics
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		cache:   storage.NewMemoryCache(),
		themes:  theme.NewRegistry(),
		metrics: monitoring.NewMetrics(),
	}
	f.manager = NewManager(cfg, nil, f.cache, f.themes).WithMetrics(f.metrics)
	t.Cleanup(f.manager.CloseAll)
	return f
}

func (f *fixture) open(t *testing.T, req types.OpenRequest, options ...OpenOption) (*Session, *mockSurface) {
	t.Helper()
	if req.Src == "" {
		req.Src = inlineBook
	}
	s, err := f.manager.Open(context.Background(), req, options...)
	require.NoError(t, err)
	surface := &mockSurface{}
	s.Attach(surface)
	return s, surface
}

func TestOpenBuildsDocument(t *testing.T) {
	f := newFixture(t, Config{ScriptURIs: []string{"/assets/epub.min.js"}})

	s, err := f.manager.Open(context.Background(), types.OpenRequest{Src: inlineBook})
	require.NoError(t, err)

	state := s.State()
	assert.False(t, state.IsLoading)
	assert.True(t, state.IsRendering)
	assert.Equal(t, types.FlowPaginated, state.Flow)
	assert.Equal(t, types.DefaultTheme(), state.Theme)

	src := s.Source()
	assert.Equal(t, types.SourceBase64, src.Kind)
	assert.Equal(t, inlineBook, src.Locator)
	assert.False(t, src.Local())

	doc := s.Document()
	assert.Contains(t, doc.HTML, inlineBook)
	assert.Contains(t, doc.HTML, `<script src="/assets/epub.min.js"></script>`)
	assert.NotEmpty(t, doc.ETag)
	assert.NoError(t, storage.ValidateKey(s.CacheKey()))

	got, err := f.manager.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, f.manager.Count())
}

func TestOpenRejectsBadRequests(t *testing.T) {
	f := newFixture(t, Config{})

	tests := []struct {
		name string
		req  types.OpenRequest
		want error
	}{
		{name: "empty source", req: types.OpenRequest{}, want: utils.ErrInvalidInput},
		{name: "unknown flow", req: types.OpenRequest{Src: inlineBook, Flow: "sideways"}, want: utils.ErrInvalidInput},
		{name: "unknown theme", req: types.OpenRequest{Src: inlineBook, ThemeName: "neon"}, want: theme.ErrNotFound},
		{name: "local file without file system", req: types.OpenRequest{Src: "books/moby.epub"}, want: ErrInvalidSource},
		{
			name: "bad initial annotation",
			req: types.OpenRequest{
				Src:                inlineBook,
				InitialAnnotations: []types.Annotation{{Type: "strike", CfiRange: "c"}},
			},
			want: utils.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.Open(context.Background(), tt.req)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
	assert.Equal(t, 0, f.manager.Count())
}

func TestOpenAppliesDefaultsAndNamedThemes(t *testing.T) {
	f := newFixture(t, Config{Defaults: Defaults{Flow: types.FlowScrolledDoc}})

	s, _ := f.open(t, types.OpenRequest{ThemeName: "dark"})
	dark, err := f.themes.Theme("dark")
	require.NoError(t, err)

	assert.Equal(t, types.FlowScrolledDoc, s.State().Flow)
	assert.Equal(t, dark, s.State().Theme)

	inline := types.Theme{"body": {"background": "#123456"}}
	s, _ = f.open(t, types.OpenRequest{Theme: inline, ThemeName: "dark", Flow: types.FlowPaginated})
	assert.Equal(t, inline, s.State().Theme)
	assert.Equal(t, types.FlowPaginated, s.State().Flow)
}

func TestSessionLimit(t *testing.T) {
	f := newFixture(t, Config{MaxSessions: 1})

	f.open(t, types.OpenRequest{})
	_, err := f.manager.Open(context.Background(), types.OpenRequest{Src: inlineBook})
	assert.ErrorIs(t, err, ErrSessionLimit)
	assert.Equal(t, 1, f.manager.Count())
}

func TestCommandsNeedASurface(t *testing.T) {
	f := newFixture(t, Config{})
	s, err := f.manager.Open(context.Background(), types.OpenRequest{Src: inlineBook})
	require.NoError(t, err)

	assert.ErrorIs(t, s.GoNext(context.Background(), nil), ErrNotReady)
	assert.ErrorIs(t, s.Search(context.Background(), command.SearchQuery{Term: "whale"}), ErrNotReady)
	assert.False(t, s.State().IsSearching)

	surface := &mockSurface{}
	surface.On("Inject", mock.Anything, intent(command.IntentNext)).Return(nil).Once()
	detach := s.Attach(surface)
	assert.True(t, s.Attached())
	require.NoError(t, s.GoNext(context.Background(), nil))

	detach()
	assert.ErrorIs(t, s.GoNext(context.Background(), nil), ErrNotReady)
	surface.AssertExpectations(t)
}

func TestStaleDetachKeepsNewerSurface(t *testing.T) {
	f := newFixture(t, Config{})
	s, _ := f.open(t, types.OpenRequest{})

	first := &mockSurface{}
	detachFirst := s.Attach(first)
	second := &mockSurface{}
	s.Attach(second)
	detachFirst()

	second.On("Inject", mock.Anything, intent(command.IntentPrevious)).Return(nil).Once()
	require.NoError(t, s.GoPrevious(context.Background(), nil))
	second.AssertExpectations(t)
	first.AssertNotCalled(t, "Inject", mock.Anything, mock.Anything)
}

func TestNavigationFollowsFlowAndScrollDefaults(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, surface := f.open(t, types.OpenRequest{Flow: types.FlowScrolledDoc})

	keep := true
	surface.On("Inject", mock.Anything, command.Next(types.FlowScrolledDoc, command.PaginateOptions{})).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.Previous(types.FlowScrolledDoc, command.PaginateOptions{KeepScrollOffset: true})).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.GoTo("ch2.xhtml", types.FlowScrolledDoc, command.PaginateOptions{})).Return(nil).Once()

	require.NoError(t, s.GoNext(ctx, nil))
	require.NoError(t, s.GoPrevious(ctx, &keep))
	require.NoError(t, s.GoToLocation(ctx, "ch2.xhtml", nil))
	assert.Error(t, s.GoToLocation(ctx, "", nil))
	surface.AssertExpectations(t)

	s, surface = f.open(t, types.OpenRequest{Flow: types.FlowScrolledDoc, KeepScrollOffset: true})
	surface.On("Inject", mock.Anything, command.Next(types.FlowScrolledDoc, command.PaginateOptions{KeepScrollOffset: true})).Return(nil).Once()
	require.NoError(t, s.GoNext(ctx, nil))
	surface.AssertExpectations(t)
}

func TestAppearanceIsRecordedAfterDelivery(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, surface := f.open(t, types.OpenRequest{})

	surface.On("Inject", mock.Anything, intent(command.IntentFontFamily)).Return(nil).Once()
	surface.On("Inject", mock.Anything, intent(command.IntentFontSize)).Return(nil).Once()
	surface.On("Inject", mock.Anything, intent(command.IntentFlow)).Return(nil).Once()
	surface.On("Inject", mock.Anything, intent(command.IntentTheme)).Return(nil).Once()

	require.NoError(t, s.ChangeFontFamily(ctx, "Georgia"))
	require.NoError(t, s.ChangeFontSize(ctx, "16pt"))
	require.NoError(t, s.ChangeFlow(ctx, types.FlowScrolled))
	require.NoError(t, s.ChangeThemeByName(ctx, "sepia"))

	sepia, err := f.themes.Theme("sepia")
	require.NoError(t, err)
	state := s.State()
	assert.Equal(t, "Georgia", state.FontFamily)
	assert.Equal(t, types.FontSize("16pt"), state.FontSize)
	assert.Equal(t, types.FlowScrolled, state.Flow)
	assert.Equal(t, sepia, state.Theme)

	assert.Error(t, s.ChangeFlow(ctx, "sideways"))
	assert.Error(t, s.ChangeFontFamily(ctx, ""))
	assert.Error(t, s.ChangeTheme(ctx, nil))
	assert.ErrorIs(t, s.ChangeThemeByName(ctx, "neon"), theme.ErrNotFound)

	boom := errors.New("sandbox gone")
	surface.On("Inject", mock.Anything, intent(command.IntentFontFamily)).Return(boom).Once()
	err = s.ChangeFontFamily(ctx, "Courier")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Georgia", s.State().FontFamily)
	surface.AssertExpectations(t)
}

func TestSearchLifecycle(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, surface := f.open(t, types.OpenRequest{})

	surface.On("Inject", mock.Anything, command.Search(command.SearchQuery{Term: "whale", Page: 2})).Return(nil).Once()
	require.NoError(t, s.Search(ctx, command.SearchQuery{Term: "whale", Page: 2}))
	assert.True(t, s.State().IsSearching)

	require.NoError(t, s.HandleMessage(ctx, []byte(
		`{"type":"onSearch","results":[{"cfi":"epubcfi(/6/2!/4/2/1:2)","excerpt":"a whale"}],"totalResults":1}`)))
	state := s.State()
	assert.False(t, state.IsSearching)
	assert.Equal(t, 1, state.SearchResults.TotalResults)
	assert.Equal(t, "a whale", state.SearchResults.Results[0].Excerpt)

	s.ClearSearchResults()
	assert.Empty(t, s.State().SearchResults.Results)
	assert.Equal(t, 0, s.State().SearchResults.TotalResults)

	surface.On("Inject", mock.Anything, intent(command.IntentSearch)).Return(context.DeadlineExceeded).Once()
	assert.ErrorIs(t, s.Search(ctx, command.SearchQuery{Term: "sea"}), context.DeadlineExceeded)
	assert.False(t, s.State().IsSearching)
	surface.AssertExpectations(t)
}

func TestAnnotationValidation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	s, surface := f.open(t, types.OpenRequest{})

	a := types.Annotation{Type: types.AnnotationHighlight, CfiRange: "epubcfi(/6/2!/4/2,/1:2,/1:7)"}
	surface.On("Inject", mock.Anything, command.AddAnnotation(a)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.AddAnnotationByTagID(types.AnnotationMark, "note-1", nil, "", nil)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.UpdateAnnotationByTagID("note-1", map[string]interface{}{"n": 1}, nil)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.RemoveAnnotationByCfi(a.CfiRange)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.RemoveAllAnnotations(types.AnnotationMark)).Return(nil).Once()

	require.NoError(t, s.AddAnnotation(ctx, a))
	require.NoError(t, s.AddAnnotationByTagID(ctx, types.AnnotationMark, "note-1", nil, "", nil))
	require.NoError(t, s.UpdateAnnotationByTagID(ctx, "note-1", map[string]interface{}{"n": 1}, nil))
	require.NoError(t, s.RemoveAnnotationByCfi(ctx, a.CfiRange))
	require.NoError(t, s.RemoveAnnotations(ctx, types.AnnotationMark))

	assert.Error(t, s.AddAnnotation(ctx, types.Annotation{Type: "strike", CfiRange: "c"}))
	assert.Error(t, s.AddAnnotation(ctx, types.Annotation{Type: types.AnnotationMark}))
	assert.Error(t, s.AddAnnotationByTagID(ctx, types.AnnotationMark, "has space", nil, "", nil))
	assert.Error(t, s.RemoveAnnotations(ctx, "strike"))
	assert.Error(t, s.UpdateAnnotation(ctx, a, map[string]interface{}{"bad": make(chan int)}, nil))
	surface.AssertExpectations(t)
}

func TestBookmarksResolveHostRecords(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	mark := types.Bookmark{
		ID:       7,
		Location: types.Location{Start: types.LocationPoint{CFI: "epubcfi(/6/2!/4/2/1:0)"}},
		Text:     "Call me Ishmael",
	}
	s, surface := f.open(t, types.OpenRequest{InitialBookmarks: []types.Bookmark{mark}})

	updated := mark
	updated.Data = map[string]interface{}{"note": "opening"}
	surface.On("Inject", mock.Anything, command.UpdateBookmark(updated)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.RemoveBookmark(mark)).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.RemoveBookmarks()).Return(nil).Once()

	require.NoError(t, s.UpdateBookmark(ctx, 7, updated.Data))
	require.NoError(t, s.RemoveBookmark(ctx, 7))
	require.NoError(t, s.RemoveBookmarks(ctx))
	assert.ErrorIs(t, s.UpdateBookmark(ctx, 8, nil), ErrBookmarkNotFound)
	assert.ErrorIs(t, s.RemoveBookmark(ctx, 8), ErrBookmarkNotFound)
	assert.ErrorIs(t, s.AddBookmark(ctx, nil, nil), ErrNoLocation)

	require.NoError(t, s.HandleMessage(ctx, []byte(
		`{"type":"onLocationChange","totalLocations":3,"progress":0.5,"currentLocation":{"start":{"cfi":"epubcfi(/6/2!/4/2/1:0)","index":0},"end":{"cfi":"epubcfi(/6/2!/4/2/1:90)","index":0}}}`)))
	current := *s.State().CurrentLocation
	surface.On("Inject", mock.Anything, command.AddBookmark(current, nil)).Return(nil).Once()
	require.NoError(t, s.AddBookmark(ctx, nil, nil))
	surface.AssertExpectations(t)
}

func TestSelectMenuItem(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	var got []string
	s, surface := f.open(t, types.OpenRequest{}, WithMenuItems(
		MenuItem{Label: "Highlight", Action: func(cfi types.CFI, text string) bool {
			got = append(got, string(cfi)+"|"+text)
			return true
		}},
		MenuItem{Label: "Copy", Action: func(types.CFI, string) bool { return false }},
	))
	assert.Equal(t, []string{"Highlight", "Copy"}, s.MenuItems())
	assert.Contains(t, s.Document().HTML, "enableSelection: true")

	assert.ErrorIs(t, s.SelectMenuItem(ctx, "Highlight"), ErrNoSelection)
	assert.ErrorIs(t, s.SelectMenuItem(ctx, "Share"), ErrMenuItemNotFound)

	require.NoError(t, s.HandleMessage(ctx, []byte(
		`{"type":"onSelected","cfiRange":"epubcfi(/6/2!/4/2,/1:2,/1:7)","text":"whale"}`)))
	require.NoError(t, s.SelectMenuItem(ctx, "Copy"))
	assert.NotNil(t, s.State().Selection)

	surface.On("Inject", mock.Anything, command.ClearSelection()).Return(nil).Once()
	require.NoError(t, s.SelectMenuItem(ctx, "Highlight"))
	assert.Equal(t, []string{"epubcfi(/6/2!/4/2,/1:2,/1:7)|whale"}, got)
	assert.Nil(t, s.State().Selection)
	surface.AssertExpectations(t)
}

func TestInjectJavaScript(t *testing.T) {
	f := newFixture(t, Config{})
	s, surface := f.open(t, types.OpenRequest{})

	surface.On("Inject", mock.Anything, command.Raw("window.x = 1; true;")).Return(nil).Once()
	require.NoError(t, s.InjectJavaScript(context.Background(), "window.x = 1; true;"))
	assert.Error(t, s.InjectJavaScript(context.Background(), ""))
	surface.AssertExpectations(t)
}

func TestFollowUpsBypassReadinessGate(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	var started int
	s, surface := f.open(t, types.OpenRequest{InjectedJavaScript: "ready();"},
		WithHandlers(dispatch.Handlers{OnStarted: func() { started++ }}))

	surface.On("Inject", mock.Anything, command.ChangeTheme(types.DefaultTheme())).Return(nil).Once()
	surface.On("Inject", mock.Anything, command.Raw("ready();")).Return(nil).Once()

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"type":"onStarted"}`)))
	require.NoError(t, s.HandleMessage(ctx, []byte(`{"type":"onReady","totalLocations":0,"progress":0}`)))
	assert.Equal(t, 1, started)
	assert.False(t, s.State().IsRendering)
	surface.AssertExpectations(t)

	var de *dispatch.DecodeError
	assert.ErrorAs(t, s.HandleMessage(ctx, []byte(`{"type":"onReady","progress":"half"}`)), &de)
}

func TestGeneratedLocationsAreCachedAndReused(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	var reported string
	s, _ := f.open(t, types.OpenRequest{}, WithHandlers(dispatch.Handlers{
		OnLocationsReady: func(key string, _ types.NavigationIndex) { reported = key },
	}))
	require.NoError(t, s.HandleMessage(ctx, []byte(
		`{"type":"onLocationsReady","epubKey":"moby","locations":["epubcfi(/6/2!/4/2/1:0)","epubcfi(/6/2!/4/2/1:100)"],"totalLocations":2,"progress":0}`)))
	assert.Equal(t, "moby", reported)

	index, ok, err := f.cache.Load(ctx, s.CacheKey())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []types.CFI{"epubcfi(/6/2!/4/2/1:0)", "epubcfi(/6/2!/4/2/1:100)"}, index.Locations)

	again, _ := f.open(t, types.OpenRequest{})
	assert.Equal(t, s.CacheKey(), again.CacheKey())
	assert.Equal(t, index.Locations, again.State().Locations)
	assert.Equal(t, types.NavigationIndex{
		Locations:      index.Locations,
		TotalLocations: 2,
		BookKey:        "moby",
	}, again.State().Index())
	assert.Contains(t, again.Document().HTML, "epubcfi(/6/2!/4/2/1:100)")

	other, _ := f.open(t, types.OpenRequest{CharactersPerLocation: 800})
	assert.NotEqual(t, s.CacheKey(), other.CacheKey())
	assert.Empty(t, other.State().Locations)
}

func TestCloseRefusesFurtherUse(t *testing.T) {
	f := newFixture(t, Config{})
	s, surface := f.open(t, types.OpenRequest{})

	require.NoError(t, f.manager.Close(s.ID()))
	assert.ErrorIs(t, s.GoNext(context.Background(), nil), ErrClosed)
	assert.ErrorIs(t, s.HandleMessage(context.Background(), []byte(`{"type":"onStarted"}`)), ErrClosed)
	assert.ErrorIs(t, f.manager.Close(s.ID()), ErrSessionNotFound)
	_, err := f.manager.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	surface.AssertNotCalled(t, "Inject", mock.Anything, mock.Anything)
}

func TestListIsOrderedByCreation(t *testing.T) {
	f := newFixture(t, Config{})
	a, _ := f.open(t, types.OpenRequest{})
	b, _ := f.open(t, types.OpenRequest{})

	list := f.manager.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID(), list[0].ID())
	assert.Equal(t, b.ID(), list[1].ID())
}
