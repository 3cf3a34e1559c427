package textutil

import (
	"strings"
	"unicode"
)

// Slug turns value into a lowercase filename-safe token. Runs of anything
// other than ASCII letters and digits collapse to a single hyphen. Blank or
// fully non-ASCII input yields "untitled".
func Slug(value string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.TrimSpace(value) {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
