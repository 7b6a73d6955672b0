package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrUnparseablePrice is returned when no numeric value survives cleaning.
var ErrUnparseablePrice = errors.New("unparseable price")

// ErrNoRating is returned when a class list carries no rating token.
var ErrNoRating = errors.New("no rating token")

var ratingValues = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
}

// ParsePrice strips currency symbols, whitespace and mis-decoded bytes such as
// "Â" from raw and parses what is left as a decimal. Any other leftover,
// including letters and thousands separators, makes the price unparseable.
func ParsePrice(raw string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r), isEncodingArtifact(r):
		default:
			return decimal.Zero, fmt.Errorf("%w: unexpected %q in %q", ErrUnparseablePrice, r, raw)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" || strings.Count(cleaned, ".") > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, raw)
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %w", ErrUnparseablePrice, raw, err)
	}
	return price, nil
}

// isEncodingArtifact matches what a UTF-8 "£" or NBSP turns into when the
// page is decoded as Latin-1, plus the Unicode replacement character.
func isEncodingArtifact(r rune) bool {
	return r == 'Â' || r == '\uFFFD'
}

// ParseRating isolates the rating token in a compound class attribute such as
// "star-rating Three". Tokens equal to prefix are ignored; the first remaining
// token is the rating.
func ParseRating(classAttr, prefix string) (string, error) {
	for _, token := range strings.Fields(classAttr) {
		if token == prefix {
			continue
		}
		return token, nil
	}
	return "", fmt.Errorf("%w in %q", ErrNoRating, classAttr)
}

// RatingValue maps a word rating ("One".."Five") to its number of stars.
func RatingValue(code string) (int, bool) {
	v, ok := ratingValues[strings.ToLower(code)]
	return v, ok
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
