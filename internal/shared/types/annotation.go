package types

// AnnotationType identifies how an annotation is drawn by the renderer
type AnnotationType string

const (
	AnnotationHighlight AnnotationType = "highlight"
	AnnotationUnderline AnnotationType = "underline"
	AnnotationMark      AnnotationType = "mark"
)

// AnnotationTypes lists every decoration kind the renderer draws
var AnnotationTypes = []AnnotationType{AnnotationHighlight, AnnotationUnderline, AnnotationMark}

// Valid reports whether t is a known decoration kind
func (t AnnotationType) Valid() bool {
	for _, known := range AnnotationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AnnotationStyles holds the optional decoration styling
type AnnotationStyles struct {
	Color     string  `json:"color,omitempty"`
	Opacity   float64 `json:"opacity,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
}

// Annotation is a style decoration over a CFI range. There is no numeric id:
// identity is the (CfiRange, Type) pair.
type Annotation struct {
	Type         AnnotationType         `json:"type"`
	CfiRange     CFI                    `json:"cfiRange"`
	Data         map[string]interface{} `json:"data,omitempty"`
	SectionIndex *int                   `json:"sectionIndex,omitempty"`
	Styles       *AnnotationStyles      `json:"styles,omitempty"`
	IconClass    string                 `json:"iconClass,omitempty"`
	CfiRangeText string                 `json:"cfiRangeText,omitempty"`
}

// AnnotationKey is the identity of an annotation
type AnnotationKey struct {
	CfiRange CFI
	Type     AnnotationType
}

// Key returns the annotation identity
func (a Annotation) Key() AnnotationKey {
	return AnnotationKey{CfiRange: a.CfiRange, Type: a.Type}
}

// Bookmark is a saved location. The host list is the source of truth; the
// renderer only helps compute Chapter and Text.
type Bookmark struct {
	ID       int64                  `json:"id"`
	Chapter  *Section               `json:"chapter,omitempty"`
	Location Location               `json:"location"`
	Text     string                 `json:"text,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Selection is the most recent text selection reported by the renderer
type Selection struct {
	CfiRange CFI    `json:"cfiRange"`
	Text     string `json:"text"`
}
