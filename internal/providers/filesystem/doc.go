// Package filesystem is the file-access collaborator of reading sessions.
//
// It reads, writes and stats documents, downloads remote sources into the
// document directory and sniffs their media type. Reads are restricted to
// the document directory plus an allow-list of glob patterns:
//
//	allow, err := filesystem.NewAllowList([]string{"/srv/books/**/*.epub"})
//	fs, err := filesystem.NewLocal(filesystem.Config{DocumentDir: dir}, allow)
//	path, err := fs.Download(ctx, "https://example.com/book", "book")
//
// Download retries belong here; the bridge never retries.
package filesystem
