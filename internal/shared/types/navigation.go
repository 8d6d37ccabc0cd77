package types

// TocEntry is one node of the document's table of contents
type TocEntry struct {
	ID       string     `json:"id,omitempty"`
	Href     string     `json:"href"`
	Label    string     `json:"label"`
	Parent   string     `json:"parent,omitempty"`
	Subitems []TocEntry `json:"subitems,omitempty"`
}

// Toc is the full table of contents, replaced wholesale on every report
type Toc []TocEntry

// Flatten returns entries in document order, parents before children
func (t Toc) Flatten() []TocEntry {
	var out []TocEntry
	var walk func(entries []TocEntry)
	walk = func(entries []TocEntry) {
		for _, e := range entries {
			out = append(out, e)
			walk(e.Subitems)
		}
	}
	walk(t)
	return out
}

// Section is a resolved chapter: a table of contents entry plus, for search
// hits, its position among the top-level entries.
type Section struct {
	TocEntry
	Index *int `json:"index,omitempty"`
}

// SameHref reports whether two possibly-nil sections point at the same href
func SameHref(a, b *Section) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Href == b.Href
}

// Landmark is an entry of the document's landmarks navigation
type Landmark struct {
	Href  string `json:"href"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

// SearchResult is one full-text hit
type SearchResult struct {
	CFI     CFI      `json:"cfi"`
	Excerpt string   `json:"excerpt"`
	Section *Section `json:"section,omitempty"`
}

// SearchResults is a volatile page of hits; TotalResults counts all hits
// before pagination.
type SearchResults struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"totalResults"`
}

// Metadata describes the open document
type Metadata struct {
	Cover       string `json:"cover,omitempty"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Publisher   string `json:"publisher"`
	Rights      string `json:"rights"`
}

// Layout is the renderer's layout descriptor, relayed verbatim
type Layout map[string]interface{}
