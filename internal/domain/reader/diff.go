package reader

import (
	"reflect"
)

// Field names a State field for change detection
type Field string

const (
	FieldTheme           Field = "theme"
	FieldFontFamily      Field = "fontFamily"
	FieldFontSize        Field = "fontSize"
	FieldFlow            Field = "flow"
	FieldAtStart         Field = "atStart"
	FieldAtEnd           Field = "atEnd"
	FieldBookKey         Field = "bookKey"
	FieldTotalLocations  Field = "totalLocations"
	FieldCurrentLocation Field = "currentLocation"
	FieldMeta            Field = "meta"
	FieldProgress        Field = "progress"
	FieldLocations       Field = "locations"
	FieldIsLoading       Field = "isLoading"
	FieldIsRendering     Field = "isRendering"
	FieldDisplayError    Field = "displayError"
	FieldIsSearching     Field = "isSearching"
	FieldSearchResults   Field = "searchResults"
	FieldAnnotations     Field = "annotations"
	FieldBookmarks       Field = "bookmarks"
	FieldSelection       Field = "selection"
	FieldSection         Field = "section"
	FieldToc             Field = "toc"
	FieldLandmarks       Field = "landmarks"
)

// Diff lists the fields that differ between two snapshots. Reference fields
// are compared by identity, not contents, so it is cheap and reports exactly
// what a transition replaced.
func Diff(prev, next State) []Field {
	var changed []Field
	mark := func(f Field, differs bool) {
		if differs {
			changed = append(changed, f)
		}
	}

	mark(FieldTheme, !sameRef(prev.Theme, next.Theme))
	mark(FieldFontFamily, prev.FontFamily != next.FontFamily)
	mark(FieldFontSize, prev.FontSize != next.FontSize)
	mark(FieldFlow, prev.Flow != next.Flow)
	mark(FieldAtStart, prev.AtStart != next.AtStart)
	mark(FieldAtEnd, prev.AtEnd != next.AtEnd)
	mark(FieldBookKey, prev.BookKey != next.BookKey)
	mark(FieldTotalLocations, prev.TotalLocations != next.TotalLocations)
	mark(FieldCurrentLocation, prev.CurrentLocation != next.CurrentLocation)
	mark(FieldMeta, prev.Meta != next.Meta)
	mark(FieldProgress, prev.Progress != next.Progress)
	mark(FieldLocations, !sameRef(prev.Locations, next.Locations))
	mark(FieldIsLoading, prev.IsLoading != next.IsLoading)
	mark(FieldIsRendering, prev.IsRendering != next.IsRendering)
	mark(FieldDisplayError, prev.DisplayError != next.DisplayError)
	mark(FieldIsSearching, prev.IsSearching != next.IsSearching)
	mark(FieldSearchResults, prev.SearchResults != next.SearchResults)
	mark(FieldAnnotations, !sameRef(prev.Annotations, next.Annotations))
	mark(FieldBookmarks, !sameRef(prev.Bookmarks, next.Bookmarks))
	mark(FieldSelection, prev.Selection != next.Selection)
	mark(FieldSection, prev.Section != next.Section)
	mark(FieldToc, !sameRef(prev.Toc, next.Toc))
	mark(FieldLandmarks, !sameRef(prev.Landmarks, next.Landmarks))

	return changed
}

// sameRef compares slices and maps by header identity
func sameRef(a, b interface{}) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() == vb.IsNil()
		}
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
