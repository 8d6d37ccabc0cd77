package reader

import (
	"fmt"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Reduce applies one action and returns the next snapshot. It performs no
// I/O and never mutates s or anything s references.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ThemeChanged:
		s.Theme = a.Theme
	case FontFamilyChanged:
		s.FontFamily = a.FontFamily
	case FontSizeChanged:
		s.FontSize = a.FontSize
	case FlowChanged:
		s.Flow = a.Flow
	case AtStartChanged:
		s.AtStart = a.AtStart
	case AtEndChanged:
		s.AtEnd = a.AtEnd
	case BookKeyChanged:
		s.BookKey = a.BookKey
	case TotalLocationsChanged:
		s.TotalLocations = a.TotalLocations
	case LocationChanged:
		s.CurrentLocation = a.Location
	case ProgressChanged:
		s.Progress = a.Progress
	case MetadataLoaded:
		meta := a.Meta
		s.Meta = &meta
	case Relocated:
		loc := a.Location
		s.CurrentLocation = &loc
		s.Progress = a.Progress
		s.TotalLocations = a.TotalLocations
		s.Section = a.Section
		s.AtStart = loc.AtStart
		s.AtEnd = loc.AtEnd
	case LocationsReady:
		s.Locations = nonNil(a.Index.Locations)
		s.BookKey = a.Index.BookKey
		s.TotalLocations = a.Index.TotalLocations
		if a.CurrentLocation != nil {
			s.CurrentLocation = a.CurrentLocation
		}
		s.Progress = a.Progress
	case DisplayErrorOccurred:
		s.DisplayError = a.Reason
		if a.Reason != "" {
			s.IsRendering = false
		}
	case LocationsChanged:
		s.Locations = nonNil(a.Locations)
	case LoadingChanged:
		s.IsLoading = a.IsLoading
	case RenderingChanged:
		s.IsRendering = a.IsRendering
	case SearchingChanged:
		s.IsSearching = a.IsSearching
	case SearchResultsReplaced:
		results := a.Results
		results.Results = nonNil(results.Results)
		s.SearchResults = &results
		s.IsSearching = false
	case SearchStarted:
		s.SearchResults = emptySearch
		s.IsSearching = true
	case AnnotationsReplaced:
		s.Annotations = nonNil(a.Annotations)
	case BookmarksReplaced:
		s.Bookmarks = nonNil(a.Bookmarks)
	case BookmarkAdded:
		s.Bookmarks = appendBookmark(s.Bookmarks, a.Bookmark)
	case BookmarkRemoved:
		s.Bookmarks = removeBookmark(s.Bookmarks, a.ID)
	case BookmarkUpdated:
		s.Bookmarks = replaceBookmark(s.Bookmarks, a.Bookmark)
	case SelectionChanged:
		s.Selection = a.Selection
	case NavigationLoaded:
		s.Toc = nonNil(a.Toc)
		s.Landmarks = nonNil(a.Landmarks)
	default:
		panic(fmt.Sprintf("reader: unhandled action %T", a))
	}
	return s
}

// appendBookmark returns a new slice; a bookmark with an existing id replaces
// the old record instead of duplicating it.
func appendBookmark(list []types.Bookmark, b types.Bookmark) []types.Bookmark {
	for _, existing := range list {
		if existing.ID == b.ID {
			return replaceBookmark(list, b)
		}
	}
	out := make([]types.Bookmark, 0, len(list)+1)
	out = append(out, list...)
	return append(out, b)
}

func removeBookmark(list []types.Bookmark, id int64) []types.Bookmark {
	out := make([]types.Bookmark, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	if len(out) == len(list) {
		return list
	}
	return out
}

func replaceBookmark(list []types.Bookmark, b types.Bookmark) []types.Bookmark {
	idx := -1
	for i, existing := range list {
		if existing.ID == b.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return list
	}
	out := make([]types.Bookmark, len(list))
	copy(out, list)
	out[idx] = b
	return out
}
