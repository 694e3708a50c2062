package helper

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug reports whether s is a lowercase, hyphen separated slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a display name. Accents are stripped and every
// run of non-alphanumeric characters becomes a single hyphen.
func Slugify(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
