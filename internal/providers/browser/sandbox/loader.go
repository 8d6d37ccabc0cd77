package sandbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// pageScript is one <script> element in document order
type pageScript struct {
	Name string
	Src  string
	Text string
}

// parseDocument decodes a page to UTF-8 and parses it. The declared charset
// wins; undeclared documents fall back to statistical detection.
func parseDocument(data []byte) (*html.Node, string, error) {
	r, label := decodeDocument(data)
	node, err := htmlquery.Parse(r)
	if err != nil {
		return nil, "", fmt.Errorf("parse document: %w", err)
	}
	return node, label, nil
}

func decodeDocument(data []byte) (io.Reader, string) {
	_, name, certain := charset.DetermineEncoding(data, "")
	if !certain && name == "windows-1252" {
		if best, err := chardet.NewHtmlDetector().DetectBest(data); err == nil && best != nil {
			name = strings.ToLower(best.Charset)
		}
	}
	r, err := charset.NewReaderLabel(name, bytes.NewReader(data))
	if err != nil {
		return bytes.NewReader(data), "utf-8"
	}
	return r, name
}

// pageScripts lists executable scripts in document order
func pageScripts(doc *html.Node) []pageScript {
	var out []pageScript
	for i, n := range htmlquery.Find(doc, "//script") {
		if typ := strings.TrimSpace(htmlquery.SelectAttr(n, "type")); typ != "" && !isJavaScript(typ) {
			continue
		}
		s := pageScript{
			Src:  strings.TrimSpace(htmlquery.SelectAttr(n, "src")),
			Text: htmlquery.InnerText(n),
		}
		switch {
		case s.Src != "":
			s.Name = s.Src
		case htmlquery.SelectAttr(n, "id") != "":
			s.Name = "inline:" + htmlquery.SelectAttr(n, "id")
		default:
			s.Name = fmt.Sprintf("inline:%d", i)
		}
		out = append(out, s)
	}
	return out
}

func isJavaScript(typ string) bool {
	switch strings.ToLower(typ) {
	case "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}
