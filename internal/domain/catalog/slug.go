package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonSlugChars matches anything that isn't a letter, digit, space or hyphen
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	// repeatedHyphens collapses consecutive hyphens into one
	repeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// SlugFromName derives a url key from a category name.
// Example: "Crème Brûlée & Co" -> "creme-brulee-co"
func SlugFromName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	result := strings.ToLower(strings.TrimSpace(folded))
	result = nonSlugChars.ReplaceAllString(result, "")
	result = strings.Join(strings.Fields(result), "-")
	result = repeatedHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
