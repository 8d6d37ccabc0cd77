// Package session manages open reading sessions.
//
// A Session ties together the state store of one document, the dispatcher
// that feeds it renderer events, and the Surface commands are injected
// through. The Manager creates sessions from open requests:
//
//  1. Validate the request and resolve its theme
//  2. Prepare the source (inline data, remote document, or local file)
//  3. Look up a cached navigation index for the source
//  4. Build the bootstrap document and clear the loading flag
//
// Host commands are refused with ErrNotReady while a session is loading or
// has no surface attached. Follow-up commands the dispatcher issues while
// handling events bypass that gate.
//
// Example Usage:
//
//	manager := session.NewManager(cfg, fs, cache, themes).WithLogger(logger)
//	s, err := manager.Open(ctx, types.OpenRequest{Src: "https://example.com/moby-dick.epub"})
//	detach := s.Attach(surface)
//	defer detach()
//	err = s.GoNext(ctx, nil)
package session
