package submit

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reAbsoluteURL = regexp.MustCompile("https?://[^\\s<>\"'{}|\\\\^`\\[\\]]+")

// ResolveURL picks the grading endpoint for quizURL. The first absolute URL in
// content mentioning "submit" wins; otherwise quizURL's last path segment is
// replaced by "submit".
func ResolveURL(content, quizURL string) string {
	// Markup escapes query separators as &amp;.
	text := html.UnescapeString(content)
	for _, candidate := range reAbsoluteURL.FindAllString(text, -1) {
		candidate = trimProse(candidate)
		if strings.Contains(strings.ToLower(candidate), "submit") {
			return candidate
		}
	}

	base := quizURL
	if i := strings.LastIndex(quizURL, "/"); i >= 0 {
		base = quizURL[:i]
	}
	return base + "/submit"
}

// trimProse drops sentence punctuation that follows a URL written in text.
// A closing parenthesis is kept when the URL itself opened one.
func trimProse(candidate string) string {
	for {
		trimmed := strings.TrimRight(candidate, ".,;:!?")
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = strings.TrimSuffix(trimmed, ")")
		}
		if trimmed == candidate {
			return candidate
		}
		candidate = trimmed
	}
}
