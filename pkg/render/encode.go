package render

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// encodeCore converts s to Windows-1252 for the built-in fonts. Characters
// the code page lacks become '?' and are counted.
func encodeCore(s string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(s))
	replaced := 0
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
			replaced++
		}
		sb.WriteByte(b)
	}
	return sb.String(), replaced
}
