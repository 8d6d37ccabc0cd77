// Package ws bridges a browser-hosted sandbox to its reading session over a
// WebSocket.
//
// The bootstrap document loads bridge.js, which defines window.ReaderHost
// and opens a socket to /readers/:id/stream relative to the document URL.
// The controller's messages travel as text frames and are handed to the
// session's dispatcher in arrival order. Commands travel the other way.
//
// Message Types (Server → Client):
//   - eval: {"type":"eval","intent":"next","script":"..."} evaluated in the page
//
// Message Types (Client → Server):
//   - any controller message, e.g. {"type":"onReady",...}
//
// Only one socket drives a session at a time. A newer connection replaces
// the surface; the older one stays open but receives no further commands.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, ws.DefaultConfig()).WithLogger(logger)
//	router.GET("/readers/:id/bridge.js", handler.ServeBridge)
//	router.GET("/readers/:id/stream", handler.HandleConnection)
package ws
