package forms

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// relationshipLabel derives a field label from a relationship name:
// "primaryAuthor.posts" becomes "Primary author".
func relationshipLabel(name string) string {
	before, _, _ := strings.Cut(name, ".")
	return humanize(before)
}

// pathLabel derives a field label from the last segment of a state path.
func pathLabel(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return humanize(path)
}

func humanize(name string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(kebab(name))
	return ucfirst(strings.TrimSpace(words))
}

func kebab(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if i > 0 && unicode.IsUpper(r) && prev != '-' {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return b.String()
}

func ucfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lcfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
