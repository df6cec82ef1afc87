package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// anchorText returns the text a layout's anchor points at. Anchor indices
// count runes of the document text; segments reaching past it are clamped.
func anchorText(lay *documentaipb.Document_Page_Layout, text []rune) string {
	if lay == nil || lay.TextAnchor == nil {
		return ""
	}
	var sb strings.Builder
	n := int64(len(text))
	for _, seg := range lay.TextAnchor.TextSegments {
		start := min(max(seg.StartIndex, 0), n)
		end := min(max(seg.EndIndex, start), n)
		sb.WriteString(string(text[start:end]))
	}
	return sb.String()
}
