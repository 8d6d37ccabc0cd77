package types

// OpenRequest opens a reading session
type OpenRequest struct {
	Src                   string       `json:"src" binding:"required"`
	Theme                 Theme        `json:"theme,omitempty"`
	ThemeName             string       `json:"themeName,omitempty"`
	Flow                  Flow         `json:"flow,omitempty"`
	Manager               Manager      `json:"manager,omitempty"`
	Snap                  *bool        `json:"snap,omitempty"`
	Spread                Spread       `json:"spread,omitempty"`
	Fullsize              *bool        `json:"fullsize,omitempty"`
	CharactersPerLocation int          `json:"charactersPerLocation,omitempty"`
	EnableSelection       *bool        `json:"enableSelection,omitempty"`
	AllowScriptedContent  *bool        `json:"allowScriptedContent,omitempty"`
	AllowPopups           *bool        `json:"allowPopups,omitempty"`
	InitialLocation       CFI          `json:"initialLocation,omitempty"`
	InitialAnnotations    []Annotation `json:"initialAnnotations,omitempty"`
	InitialBookmarks      []Bookmark   `json:"initialBookmarks,omitempty"`
	WaitForLocationsReady *bool        `json:"waitForLocationsReady,omitempty"`
	KeepScrollOffset      bool         `json:"keepScrollOffset,omitempty"`
	InjectedJavaScript    string       `json:"injectedJavascript,omitempty"`
}

// NavigationRequest moves the reading position
type NavigationRequest struct {
	Action           string `json:"action" binding:"required,oneof=next previous goto"`
	Target           CFI    `json:"target,omitempty"`
	KeepScrollOffset *bool  `json:"keepScrollOffset,omitempty"`
}

// AppearanceRequest changes any of theme, font and flow
type AppearanceRequest struct {
	Theme      Theme    `json:"theme,omitempty"`
	ThemeName  string   `json:"themeName,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	FontSize   FontSize `json:"fontSize,omitempty"`
	Flow       Flow     `json:"flow,omitempty"`
}

// ScriptRequest evaluates host-supplied JavaScript in the sandbox
type ScriptRequest struct {
	Script string `json:"script" binding:"required"`
}

// SearchRequest starts a paginated full-text search
type SearchRequest struct {
	Term      string `json:"term"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	SectionID string `json:"sectionId,omitempty"`
}

// AnnotationRequest is one annotation mutation. Annotation addresses a
// single annotation by (cfiRange,type); TagID addresses an element of the
// rendered document; CfiRange or Type alone select removals.
type AnnotationRequest struct {
	Annotation *Annotation            `json:"annotation,omitempty"`
	Type       AnnotationType         `json:"type,omitempty"`
	CfiRange   CFI                    `json:"cfiRange,omitempty"`
	TagID      string                 `json:"tagId,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Styles     *AnnotationStyles      `json:"styles,omitempty"`
	IconClass  string                 `json:"iconClass,omitempty"`
}

// BookmarkRequest adds, updates or removes a bookmark. A removal without ID
// clears every bookmark.
type BookmarkRequest struct {
	ID       int64                  `json:"id,omitempty"`
	Location *Location              `json:"location,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SelectionRequest triggers a custom selection menu item, or clears the
// selection when Label is empty
type SelectionRequest struct {
	Label string `json:"label,omitempty"`
}

// WSMessage is a host-to-sandbox WebSocket frame
type WSMessage struct {
	Type   string `json:"type"`
	Intent string `json:"intent,omitempty"`
	Script string `json:"script,omitempty"`
}
