package dispatch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Kind is the discriminant of an inbound event
type Kind string

const (
	KindStarted               Kind = "onStarted"
	KindReady                 Kind = "onReady"
	KindDisplayError          Kind = "onDisplayError"
	KindResized               Kind = "onResized"
	KindLocationChange        Kind = "onLocationChange"
	KindLocationsReady        Kind = "onLocationsReady"
	KindSearch                Kind = "onSearch"
	KindSelected              Kind = "onSelected"
	KindOrientationChange     Kind = "onOrientationChange"
	KindBeginning             Kind = "onBeginning"
	KindFinish                Kind = "onFinish"
	KindRendered              Kind = "onRendered"
	KindLayout                Kind = "onLayout"
	KindNavigationLoaded      Kind = "onNavigationLoaded"
	KindMeta                  Kind = "meta"
	KindAddAnnotation         Kind = "onAddAnnotation"
	KindChangeAnnotations     Kind = "onChangeAnnotations"
	KindSetInitialAnnotations Kind = "onSetInitialAnnotations"
	KindPressAnnotation       Kind = "onPressAnnotation"
	KindAddBookmark           Kind = "onAddBookmark"
	KindRemoveBookmark        Kind = "onRemoveBookmark"
	KindRemoveBookmarks       Kind = "onRemoveBookmarks"
	KindUpdateBookmark        Kind = "onUpdateBookmark"
)

// Event is a decoded inbound message
type Event interface {
	Kind() Kind
}

type (
	Started struct{}

	Ready struct {
		TotalLocations  int             `json:"totalLocations"`
		CurrentLocation *types.Location `json:"currentLocation"`
		Progress        float64         `json:"progress"`
	}

	DisplayError struct {
		Reason string `json:"reason"`
	}

	Resized struct {
		Layout types.Layout `json:"layout"`
	}

	LocationChange struct {
		TotalLocations  int            `json:"totalLocations"`
		CurrentLocation types.Location `json:"currentLocation"`
		Progress        float64        `json:"progress"`
		CurrentSection  *types.Section `json:"currentSection"`
	}

	LocationsReady struct {
		EpubKey         string          `json:"epubKey"`
		Locations       CFIList         `json:"locations"`
		TotalLocations  int             `json:"totalLocations"`
		CurrentLocation *types.Location `json:"currentLocation"`
		Progress        float64         `json:"progress"`
	}

	Search struct {
		Results      []types.SearchResult `json:"results"`
		TotalResults int                  `json:"totalResults"`
	}

	Selected struct {
		CfiRange types.CFI `json:"cfiRange"`
		Text     string    `json:"text"`
	}

	OrientationChange struct {
		Orientation interface{} `json:"orientation"`
	}

	Beginning struct{}
	Finish    struct{}

	Rendered struct {
		Section        RenderedSection `json:"section"`
		CurrentSection *types.TocEntry `json:"currentSection"`
	}

	Layout struct {
		Layout types.Layout `json:"layout"`
	}

	NavigationLoaded struct {
		Toc       types.Toc        `json:"toc"`
		Landmarks []types.Landmark `json:"landmarks"`
	}

	Meta struct {
		Metadata types.Metadata `json:"metadata"`
	}

	AddAnnotation struct {
		Annotation types.Annotation `json:"annotation"`
	}

	ChangeAnnotations struct {
		Annotations []types.Annotation `json:"annotations"`
	}

	SetInitialAnnotations struct {
		Annotations []types.Annotation `json:"annotations"`
	}

	PressAnnotation struct {
		Annotation types.Annotation `json:"annotation"`
	}

	AddBookmark struct {
		Bookmark types.Bookmark `json:"bookmark"`
	}

	RemoveBookmark struct {
		Bookmark types.Bookmark `json:"bookmark"`
	}

	RemoveBookmarks struct{}

	UpdateBookmark struct {
		Bookmark types.Bookmark `json:"bookmark"`
	}

	// Unknown carries an event kind the host does not model, verbatim
	Unknown struct {
		Type    string
		Payload map[string]interface{}
		Raw     []byte
	}
)

// RenderedSection describes a spine item the renderer just laid out
type RenderedSection struct {
	Index   int    `json:"index"`
	Href    string `json:"href"`
	IDRef   string `json:"idref,omitempty"`
	Linear  string `json:"linear,omitempty"`
	CfiBase string `json:"cfiBase,omitempty"`
}

func (Started) Kind() Kind               { return KindStarted }
func (Ready) Kind() Kind                 { return KindReady }
func (DisplayError) Kind() Kind          { return KindDisplayError }
func (Resized) Kind() Kind               { return KindResized }
func (LocationChange) Kind() Kind        { return KindLocationChange }
func (LocationsReady) Kind() Kind        { return KindLocationsReady }
func (Search) Kind() Kind                { return KindSearch }
func (Selected) Kind() Kind              { return KindSelected }
func (OrientationChange) Kind() Kind     { return KindOrientationChange }
func (Beginning) Kind() Kind             { return KindBeginning }
func (Finish) Kind() Kind                { return KindFinish }
func (Rendered) Kind() Kind              { return KindRendered }
func (Layout) Kind() Kind                { return KindLayout }
func (NavigationLoaded) Kind() Kind      { return KindNavigationLoaded }
func (Meta) Kind() Kind                  { return KindMeta }
func (AddAnnotation) Kind() Kind         { return KindAddAnnotation }
func (ChangeAnnotations) Kind() Kind     { return KindChangeAnnotations }
func (SetInitialAnnotations) Kind() Kind { return KindSetInitialAnnotations }
func (PressAnnotation) Kind() Kind       { return KindPressAnnotation }
func (AddBookmark) Kind() Kind           { return KindAddBookmark }
func (RemoveBookmark) Kind() Kind        { return KindRemoveBookmark }
func (RemoveBookmarks) Kind() Kind       { return KindRemoveBookmarks }
func (UpdateBookmark) Kind() Kind        { return KindUpdateBookmark }
func (u Unknown) Kind() Kind             { return Kind(u.Type) }

// CFIList decodes a navigation index either as an array of CFIs or as the
// JSON string the renderer's save() produces
type CFIList []types.CFI

// UnmarshalJSON implements json.Unmarshaler
func (l *CFIList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := sonic.UnmarshalString(trimmed, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*l = CFIList{}
			return nil
		}
		trimmed = inner
	}

	var out []types.CFI
	if err := sonic.UnmarshalString(trimmed, &out); err != nil {
		return fmt.Errorf("locations: %w", err)
	}
	*l = out
	return nil
}
