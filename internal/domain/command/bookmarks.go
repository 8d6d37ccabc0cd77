package command

import (
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// AddBookmark asks the sandbox to resolve the chapter and text of location
// and report a complete bookmark back
func AddBookmark(location types.Location, data map[string]interface{}) Script {
	return build(IntentAddBookmark, invoke("addBookmark", location, data))
}

// RemoveBookmark passes a host-held bookmark through for removal
func RemoveBookmark(b types.Bookmark) Script {
	return build(IntentRemoveBookmark, invoke("removeBookmark", b))
}

// RemoveBookmarks clears every bookmark
func RemoveBookmarks() Script {
	return build(IntentRemoveBookmarks, invoke("removeBookmarks"))
}

// UpdateBookmark passes an updated host-held bookmark through
func UpdateBookmark(b types.Bookmark) Script {
	return build(IntentUpdateBookmark, invoke("updateBookmark", b))
}

// Search defaults
const (
	DefaultSearchPage  = 1
	DefaultSearchLimit = 20
)

// SearchQuery is one page of a full-text search
type SearchQuery struct {
	Term string
	// Page is 1-based
	Page      int
	Limit     int
	SectionID string
}

// Normalize applies the page and limit defaults
func (q SearchQuery) Normalize() SearchQuery {
	if q.Page < 1 {
		q.Page = DefaultSearchPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultSearchLimit
	}
	return q
}

// Search scans every section for q.Term and reports one page of hits
func Search(q SearchQuery) Script {
	q = q.Normalize()
	return build(IntentSearch, invoke("search", q.Term, q.Page, q.Limit, nullable(q.SectionID)))
}

// ClearSelection removes any text selection in the rendered views
func ClearSelection() Script {
	return build(IntentClearSelection, invoke("clearSelection"))
}

// Raw passes host-supplied JavaScript through unchanged
func Raw(source string) Script {
	return Script{Intent: IntentRaw, Source: source}
}
