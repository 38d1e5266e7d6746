package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// GenerateSlug creates a URL slug from a title with a random 4-digit suffix,
// e.g. "Signed Team Shirt" -> "signed-team-shirt-3071". The suffix keeps
// repeated donations of the same item from colliding on the unique index.
func GenerateSlug(title string) (string, error) {
	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}

	base := slugify(title)
	if base == "" {
		return fmt.Sprintf("lot-%04d", suffix.Int64()), nil
	}
	return fmt.Sprintf("%s-%04d", base, suffix.Int64()), nil
}

// slugify lowercases the title and collapses every non-alphanumeric run into
// a single hyphen.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
