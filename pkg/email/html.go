package email

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/yuin/goldmark"

	errUtils "github.com/umsi-mads/mads/errors"
)

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	anchorRe     = regexp.MustCompile(`(?s)<a\s[^>]*href="([^"]*)"[^>]*>.*?</a>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)

	htmlBreaks = strings.NewReplacer(
		"<li>", "* ",
		"<br/>", "\n",
		"<br>", "\n",
		"</li>", "\n",
		"</p>", "\n",
	)
)

// StripHTML renders an HTML fragment as plain text. List items become bullets, links become their target.
func StripHTML(s string) string {
	s = htmlBreaks.Replace(s)
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = anchorRe.ReplaceAllString(s, "$1")
	return tagRe.ReplaceAllString(s, "")
}

// WrapHTML places a fragment in a minimal HTML document.
func WrapHTML(s string) string {
	return "<!doctype html>" +
		"<html lang='en'>" +
		"<head>" +
		"<style>" +
		".error { color: red; }" +
		"</style>" +
		"</head>" +
		"<body>" + s + "</body>" +
		"</html>"
}

// RenderMarkdown converts a Markdown body to an HTML fragment.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", errUtils.Mark(errors.Wrap(err, "rendering markdown body"), errUtils.ErrEmailBuild)
	}
	return buf.String(), nil
}
