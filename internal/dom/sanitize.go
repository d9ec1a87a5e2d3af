package dom

import "strings"

// Sanitize keeps only ASCII letters, digits and spaces. Labels on the page and
// click targets from the model both go through it, so they compare equal.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return b.String()
}
