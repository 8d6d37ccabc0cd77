// Package storage caches navigation indices between reading sessions.
//
// Generating a navigation index walks the whole document, so sessions look
// one up by source key before building a bootstrap document and write the
// renderer's index back once it reports onLocationsReady. FileCache keeps
// zstd-compressed JSON records on disk; MemoryCache serves tests and
// single-process deployments.
package storage
