package reader

import (
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Action is a semantic state transition. The set is closed: only this
// package can add members.
type Action interface {
	action()
}

type (
	ThemeChanged      struct{ Theme types.Theme }
	FontFamilyChanged struct{ FontFamily string }
	FontSizeChanged   struct{ FontSize types.FontSize }
	FlowChanged       struct{ Flow types.Flow }

	AtStartChanged        struct{ AtStart bool }
	AtEndChanged          struct{ AtEnd bool }
	BookKeyChanged        struct{ BookKey string }
	TotalLocationsChanged struct{ TotalLocations int }
	LocationChanged       struct{ Location *types.Location }
	ProgressChanged       struct{ Progress float64 }
	MetadataLoaded        struct{ Meta types.Metadata }

	// Relocated applies a renderer relocation. AtStart and AtEnd are taken
	// from the location as reported, never derived.
	Relocated struct {
		Location       types.Location
		Progress       float64
		TotalLocations int
		Section        *types.Section
	}

	// LocationsReady installs a freshly generated navigation index
	LocationsReady struct {
		Index           types.NavigationIndex
		CurrentLocation *types.Location
		Progress        float64
	}

	// DisplayErrorOccurred records a sandbox rendering failure. An empty
	// Reason clears it.
	DisplayErrorOccurred struct{ Reason string }

	LocationsChanged struct{ Locations []types.CFI }
	LoadingChanged   struct{ IsLoading bool }
	RenderingChanged struct{ IsRendering bool }
	SearchingChanged struct{ IsSearching bool }

	SearchResultsReplaced struct{ Results types.SearchResults }
	SearchStarted         struct{}

	AnnotationsReplaced struct{ Annotations []types.Annotation }

	BookmarksReplaced struct{ Bookmarks []types.Bookmark }
	BookmarkAdded     struct{ Bookmark types.Bookmark }
	BookmarkRemoved   struct{ ID int64 }
	BookmarkUpdated   struct{ Bookmark types.Bookmark }

	SelectionChanged struct{ Selection *types.Selection }

	NavigationLoaded struct {
		Toc       types.Toc
		Landmarks []types.Landmark
	}
)

func (ThemeChanged) action()          {}
func (FontFamilyChanged) action()     {}
func (FontSizeChanged) action()       {}
func (FlowChanged) action()           {}
func (AtStartChanged) action()        {}
func (AtEndChanged) action()          {}
func (BookKeyChanged) action()        {}
func (TotalLocationsChanged) action() {}
func (LocationChanged) action()       {}
func (ProgressChanged) action()       {}
func (MetadataLoaded) action()        {}
func (Relocated) action()             {}
func (LocationsReady) action()        {}
func (DisplayErrorOccurred) action()  {}
func (LocationsChanged) action()      {}
func (LoadingChanged) action()        {}
func (RenderingChanged) action()      {}
func (SearchingChanged) action()      {}
func (SearchResultsReplaced) action() {}
func (SearchStarted) action()         {}
func (AnnotationsReplaced) action()   {}
func (BookmarksReplaced) action()     {}
func (BookmarkAdded) action()         {}
func (BookmarkRemoved) action()       {}
func (BookmarkUpdated) action()       {}
func (SelectionChanged) action()      {}
func (NavigationLoaded) action()      {}
