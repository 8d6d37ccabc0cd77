// Package reader holds the host-side reading state.
//
// State is an immutable snapshot. Reduce applies one Action and returns a new
// snapshot that shares every field the action did not concern, so Diff can
// report changes by identity. Store is the single mutable cell per document.
package reader
