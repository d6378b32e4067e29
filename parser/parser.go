package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MissingSentinel is the placeholder the listing prints for scores that are
// not yet available.
const MissingSentinel = "tbd"

// ErrNotNumeric is returned by ExtractNumber for text that is present but is
// not a number.
var ErrNotNumeric = errors.New("value is not numeric")

// decimalPattern admits plain decimal text only: no NaN, Inf, exponents or
// hex floats.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// normalize returns the trimmed text of sel, or false when the node is absent
// or holds an empty or sentinel value.
func normalize(sel *goquery.Selection) (string, bool) {
	if sel == nil || sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(sel.First().Text())
	if text == "" || text == MissingSentinel {
		return "", false
	}
	return text, true
}

// ExtractText returns the trimmed text of the first node in sel, or nil.
func ExtractText(sel *goquery.Selection) *string {
	text, ok := normalize(sel)
	if !ok {
		return nil
	}
	return &text
}

// ExtractNumber parses the trimmed text of the first node in sel as a plain
// decimal. Missing nodes and sentinel values yield (nil, nil); any other text
// that is not a finite decimal yields ErrNotNumeric.
func ExtractNumber(sel *goquery.Selection) (*float64, error) {
	text, ok := normalize(sel)
	if !ok {
		return nil, nil
	}
	if !decimalPattern.MatchString(text) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, text)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, text)
	}
	return &value, nil
}

// ResolveURL turns a site-relative link into an absolute one. Links that
// already carry a scheme are returned as is. candidate is concatenated to
// origin verbatim, so relative links must start with "/".
func ResolveURL(candidate *string, origin string) *string {
	if candidate == nil || *candidate == "" {
		return nil
	}
	if strings.HasPrefix(*candidate, "http") {
		out := *candidate
		return &out
	}
	out := origin + *candidate
	return &out
}

// NormalizeArtist drops the "by" prefix the listing prints before artist names.
func NormalizeArtist(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if rest, ok := strings.CutPrefix(trimmed, "by "); ok {
		trimmed = strings.TrimSpace(rest)
	}
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
