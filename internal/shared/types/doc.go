// Package types provides the shared data model of the reader bridge.
//
// Everything the host knows about the sandboxed renderer arrives as one of
// these values, decoded from an inbound event. JSON field names are the wire
// names used by the embedded controller.
//
// Navigation:
//   - CFI: opaque, order-comparable locator
//   - Location, LocationPoint: relocation reported by the renderer
//   - NavigationIndex: cached list of CFIs used for progress
//   - Toc, TocEntry, Section, Landmark: document structure
//
// User data:
//   - Annotation: style decoration, identified by (CfiRange, Type)
//   - Bookmark: saved location, identified by ID
//   - Selection: last text selection
//
// Rendering:
//   - Theme, FontSize, Flow, Manager, Spread, SourceKind
//
// Request Types:
//   - OpenRequest, NavigationRequest, AppearanceRequest, SearchRequest
//   - AnnotationRequest, BookmarkRequest, SelectionRequest, ScriptRequest
//   - WSMessage: host-to-sandbox WebSocket frame
package types
