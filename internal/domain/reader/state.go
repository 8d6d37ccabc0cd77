package reader

import (
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// State is an immutable snapshot of everything the host knows about the open
// document. Transitions copy the struct and replace only the fields an event
// concerns, so untouched slices, maps and pointers are shared between
// snapshots.
type State struct {
	Theme      types.Theme
	FontFamily string
	FontSize   types.FontSize
	Flow       types.Flow

	AtStart bool
	AtEnd   bool

	BookKey         string
	TotalLocations  int
	CurrentLocation *types.Location
	Meta            *types.Metadata
	Progress        float64
	Locations       []types.CFI

	// IsLoading covers host-side source preparation; the renderer must not be
	// addressed while it is set. IsRendering covers sandbox-side layout.
	IsLoading   bool
	IsRendering bool

	// DisplayError holds the last sandbox failure reason until the sandbox
	// starts again. A reader with a DisplayError may show a partial page.
	DisplayError string

	IsSearching   bool
	SearchResults *types.SearchResults

	Annotations []types.Annotation
	Bookmarks   []types.Bookmark
	Selection   *types.Selection

	Section   *types.Section
	Toc       types.Toc
	Landmarks []types.Landmark
}

// InitialOptions seeds a new state
type InitialOptions struct {
	Theme       types.Theme
	Bookmarks   []types.Bookmark
	Annotations []types.Annotation
	Locations   []types.CFI
	Flow        types.Flow
}

var emptySearch = &types.SearchResults{Results: []types.SearchResult{}, TotalResults: 0}

// NewState returns the state of a freshly opened document
func NewState(opts InitialOptions) State {
	theme := opts.Theme
	if theme == nil {
		theme = types.DefaultTheme()
	}
	flow := opts.Flow
	if flow == "" {
		flow = types.FlowPaginated
	}

	return State{
		Theme:         theme,
		FontFamily:    "Helvetica",
		FontSize:      "12pt",
		Meta:          &types.Metadata{},
		Locations:     nonNil(opts.Locations),
		IsLoading:     true,
		IsRendering:   true,
		SearchResults: emptySearch,
		Annotations:   nonNil(opts.Annotations),
		Bookmarks:     nonNil(opts.Bookmarks),
		Toc:           types.Toc{},
		Landmarks:     []types.Landmark{},
		Flow:          flow,
	}
}

// Index returns the navigation index carried by the state
func (s State) Index() types.NavigationIndex {
	return types.NavigationIndex{
		Locations:      s.Locations,
		TotalLocations: s.TotalLocations,
		BookKey:        s.BookKey,
	}
}

// IsBookmarked reports whether a bookmark covers the current location
func (s State) IsBookmarked() bool {
	if s.CurrentLocation == nil {
		return false
	}
	for _, b := range s.Bookmarks {
		if b.Location.SameRange(*s.CurrentLocation) {
			return true
		}
	}
	return false
}

// Bookmark finds a bookmark by id
func (s State) Bookmark(id int64) (types.Bookmark, bool) {
	for _, b := range s.Bookmarks {
		if b.ID == id {
			return b, true
		}
	}
	return types.Bookmark{}, false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
