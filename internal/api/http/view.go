package http

import (
	"time"

	"github.com/GriffinCanCode/ReaderBridge/internal/domain/reader"
	"github.com/GriffinCanCode/ReaderBridge/internal/domain/session"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// StateView is the JSON rendition of a reader's state
type StateView struct {
	Theme      types.Theme    `json:"theme"`
	FontFamily string         `json:"fontFamily"`
	FontSize   types.FontSize `json:"fontSize"`
	Flow       types.Flow     `json:"flow"`

	AtStart bool `json:"atStart"`
	AtEnd   bool `json:"atEnd"`

	BookKey         string          `json:"key"`
	TotalLocations  int             `json:"totalLocations"`
	CurrentLocation *types.Location `json:"currentLocation"`
	Meta            *types.Metadata `json:"meta"`
	Progress        float64         `json:"progress"`
	Locations       []types.CFI     `json:"locations"`

	IsLoading    bool   `json:"isLoading"`
	IsRendering  bool   `json:"isRendering"`
	DisplayError string `json:"displayError,omitempty"`

	IsSearching   bool                 `json:"isSearching"`
	SearchResults *types.SearchResults `json:"searchResults"`

	Annotations []types.Annotation `json:"annotations"`
	Bookmarks   []types.Bookmark   `json:"bookmarks"`
	Selection   *types.Selection   `json:"selection"`

	Section   *types.Section   `json:"section"`
	Toc       types.Toc        `json:"toc"`
	Landmarks []types.Landmark `json:"landmarks"`
}

// ReaderView describes one open reader
type ReaderView struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Attached     bool      `json:"attached"`
	IsBookmarked bool      `json:"isBookmarked"`
	SourceKind   string    `json:"sourceKind"`
	Document     string    `json:"document"`
	Stream       string    `json:"stream"`
	MenuItems    []string  `json:"menuItems"`
	State        StateView `json:"state"`
}

func stateView(st reader.State) StateView {
	return StateView{
		Theme:           st.Theme,
		FontFamily:      st.FontFamily,
		FontSize:        st.FontSize,
		Flow:            st.Flow,
		AtStart:         st.AtStart,
		AtEnd:           st.AtEnd,
		BookKey:         st.BookKey,
		TotalLocations:  st.TotalLocations,
		CurrentLocation: st.CurrentLocation,
		Meta:            st.Meta,
		Progress:        st.Progress,
		Locations:       st.Locations,
		IsLoading:       st.IsLoading,
		IsRendering:     st.IsRendering,
		DisplayError:    st.DisplayError,
		IsSearching:     st.IsSearching,
		SearchResults:   st.SearchResults,
		Annotations:     st.Annotations,
		Bookmarks:       st.Bookmarks,
		Selection:       st.Selection,
		Section:         st.Section,
		Toc:             st.Toc,
		Landmarks:       st.Landmarks,
	}
}

func readerView(s *session.Session) ReaderView {
	base := "/readers/" + s.ID().String()
	menu := s.MenuItems()
	if menu == nil {
		menu = []string{}
	}
	return ReaderView{
		ID:           s.ID().String(),
		CreatedAt:    s.CreatedAt(),
		Attached:     s.Attached(),
		IsBookmarked: s.IsBookmarked(),
		SourceKind:   string(s.Source().Kind),
		Document:     base + "/document",
		Stream:       base + "/stream",
		MenuItems:    menu,
		State:        stateView(s.State()),
	}
}
