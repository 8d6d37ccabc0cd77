// Package command builds the scripts the host injects into the sandbox.
//
// Every script calls methods of the controller's reader object with JSON
// literal arguments, catches sandbox exceptions into reader.fail and
// evaluates to true. Generators never fail: an argument that cannot be
// encoded produces a script that reports the problem as a display error.
package command
