package bridge

import (
	"strings"
	"unicode"
)

// NormalizeToolName converts a tool name from whatever identifier convention
// the model runtime produced (camelCase, SNAKE_CASE, PascalCase) to the
// registry's canonical kebab-case.
//
// Rules: lowercase everything; insert "-" at a lowercase-to-uppercase boundary
// and between an uppercase run and a following capitalized word; underscores
// become "-". The transform is idempotent: canonical names pass through
// unchanged.
//
//	NormalizeToolName("getDirections")   == "get-directions"
//	NormalizeToolName("GET_DIRECTIONS")  == "get-directions"
//	NormalizeToolName("view-location")   == "view-location"
func NormalizeToolName(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	var last rune
	writeSep := func() {
		if last != 0 && last != '-' {
			b.WriteByte('-')
			last = '-'
		}
	}
	write := func(r rune) {
		b.WriteRune(r)
		last = r
	}

	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			writeSep()
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				switch {
				case unicode.IsLower(prev) || unicode.IsDigit(prev):
					writeSep()
				case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
					writeSep()
				}
			}
			write(unicode.ToLower(r))
		default:
			write(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
