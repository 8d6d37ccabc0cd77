// Package http provides the REST surface of the reader bridge.
//
// Handlers translate requests into session operations and map domain errors
// onto status codes. Commands answer 202 Accepted with the reader state at
// the time the script went out; their effects arrive through the sandbox's
// messages and show up in later GET /readers/:id responses.
//
// Endpoints:
//   - POST /readers, GET /readers, GET|DELETE /readers/:id
//   - GET /readers/:id/document, GET /readers/:id/source
//   - POST /readers/:id/navigation, PUT /readers/:id/appearance
//   - POST|DELETE /readers/:id/search
//   - POST|PATCH|DELETE /readers/:id/annotations
//   - POST|PATCH|DELETE /readers/:id/bookmarks
//   - POST /readers/:id/selection, POST /readers/:id/script
//   - GET /themes, GET|PUT|DELETE /themes/:name
//   - GET /health, GET /metrics/json
package http
