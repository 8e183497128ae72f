package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldings covers letters that do not decompose into base + combining mark.
var foldings = strings.NewReplacer("đ", "d", "Đ", "D", "ø", "o", "Ø", "O", "ß", "ss", "æ", "ae", "Æ", "AE", "ł", "l", "Ł", "L")

// Slugify derives a URL-friendly slug from a display name.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, foldings.Replace(name))
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugFor is Slugify with a fallback for names that fold to nothing, such as
// names written entirely in non-Latin scripts: the first block of id.
func SlugFor(name string, id uuid.UUID) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return id.String()[:8]
}
