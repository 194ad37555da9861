package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = newContentPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// newContentPolicy is the UGC policy with <img> limited to src and alt.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Sanitize cleans HTML content to prevent XSS attacks and reduces images to src/alt.
func Sanitize(input string) string {
	out := sanitizer.Sanitize(input)
	return ClearImgAttributes(out)
}

// StripTags removes every tag and returns unescaped plain text.
func StripTags(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// PlainText strips tags like StripTags and also drops angle brackets that
// unescaping may have turned back into markup.
func PlainText(input string) string {
	return strings.TrimSpace(angleBrackets.Replace(StripTags(input)))
}

var (
	imgTag  = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	imgAttr = regexp.MustCompile(`(?i)\b(src|alt)\s*=\s*"([^"]*)"`)
)

// ClearImgAttributes rewrites every <img> tag to carry only src and alt.
func ClearImgAttributes(input string) string {
	return imgTag.ReplaceAllStringFunc(input, func(tag string) string {
		var b strings.Builder
		b.WriteString("<img")
		for _, m := range imgAttr.FindAllStringSubmatch(tag, -1) {
			b.WriteString(" " + strings.ToLower(m[1]) + `="` + m[2] + `"`)
		}
		if strings.HasSuffix(tag, "/>") {
			b.WriteString("/>")
		} else {
			b.WriteString(">")
		}
		return b.String()
	})
}
