package filesystem

import (
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// sniffLimit is how much of a file is read for charset detection
const sniffLimit = 4096

// Sniff detects the media type of a file and, for text, its charset
func Sniff(path string) (mimeType, charset string, err error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", err
	}
	mimeType = mtype.String()

	if !isText(mtype) {
		return mimeType, "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return mimeType, "", err
	}
	defer f.Close()

	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return mimeType, "", err
	}
	if n == 0 {
		return mimeType, "", nil
	}
	if best, err := chardet.NewTextDetector().DetectBest(head[:n]); err == nil && best != nil {
		charset = best.Charset
	}
	return mimeType, charset, nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") || m.Is("application/xhtml+xml") {
			return true
		}
	}
	return false
}

// SourceKindFor maps a detected media type to the renderer's source kind.
// Anything not recognisably an OPF package is opened as a binary archive.
func SourceKindFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "application/epub+zip"):
		return "epub"
	case strings.HasPrefix(mimeType, "application/oebps-package+xml"):
		return "opf"
	default:
		return "binary"
	}
}
