package utils

import (
	"strings"

	"github.com/bytedance/sonic"
)

var lineSeparators = strings.NewReplacer("\u2028", `\u2028`, "\u2029", `\u2029`)

// JSLiteral encodes v as a JavaScript expression that is safe to embed in an
// inline script. HTML-sensitive characters and line separators are escaped,
// so a string value can never terminate its surrounding expression or element.
func JSLiteral(v interface{}) (string, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return "", err
	}
	return lineSeparators.Replace(string(data)), nil
}
