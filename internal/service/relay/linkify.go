package relay

import "regexp"

var urlPattern = regexp.MustCompile(`(https?://[^\s]+)`)

// Linkify wraps every bare http(s) URL in an anchor that opens a new tab.
// All other text is left untouched.
func Linkify(text string) string {
	return urlPattern.ReplaceAllString(text, `<a href="$1" target="_blank">$1</a>`)
}
