// Package dispatch decodes messages posted by the sandboxed controller and
// routes them to store transitions and host callbacks.
//
// Messages are JSON objects discriminated by "type". Known kinds decode into
// one Go type each; anything else is handed to the host as Unknown. Malformed
// messages are dropped and reported, never retried.
package dispatch
