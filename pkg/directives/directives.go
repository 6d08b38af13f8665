// Package directives finds file-write directives in assistant replies and
// applies them to a workspace.
//
// The syntax is
//
//	<write_file path="PATH">BODY</write_file>
//
// Tag names are case-sensitive, the body runs up to the first closing tag and
// is written verbatim. Nested or unclosed tags are not handled specially.
package directives

import (
	"regexp"
)

var writeFileRegexp = regexp.MustCompile(`(?s)<write_file path="([^"]+)">(.*?)</write_file>`)

type Directive struct {
	TargetPath string
	Body       string
}

// Parse returns the directives in text in order of appearance.
func Parse(text string) []Directive {
	matches := writeFileRegexp.FindAllStringSubmatch(text, -1)
	ret := make([]Directive, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, Directive{TargetPath: m[1], Body: m[2]})
	}
	return ret
}
