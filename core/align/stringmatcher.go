// Package align maps character-level edit operations back onto token
// boundaries, producing an ordered token-to-token(s) correspondence between
// two tokenizations of the same underlying text.
package align

import (
	"fmt"
	"regexp"
	"strings"
)

// Variant is a normalization rewrite rule: every substring matching
// Pattern is replaced by the Canonical form before comparison.
type Variant struct {
	Canonical string
	Pattern   *regexp.Regexp
}

// StringMatcher normalizes and compares two token strings, returning a
// human-readable mismatch description or the empty string on a match.
type StringMatcher struct {
	// Variants are applied in order to both inputs before comparison.
	Variants []Variant

	// FoldCase lowercases both inputs before applying the variants.
	FoldCase bool
}

// NewStringMatcher returns a matcher with no normalization rules.
func NewStringMatcher() *StringMatcher {
	return &StringMatcher{}
}

// Compare normalizes a and b and describes how they differ. It is a pure
// function of its inputs and the rule list.
func (m *StringMatcher) Compare(a, b string) string {
	if m.FoldCase {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	for _, v := range m.Variants {
		a = v.Pattern.ReplaceAllString(a, v.Canonical)
		b = v.Pattern.ReplaceAllString(b, v.Canonical)
	}
	switch {
	case a != "" && b != "" && a != b:
		return fmt.Sprintf("%q is not %q", a, b)
	case a != "" && b == "":
		return fmt.Sprintf("%q missing in b", a)
	case b != "" && a == "":
		return fmt.Sprintf("additional %q in b", b)
	}
	return ""
}

// DefaultVariants returns rewrite rules that fold the common Latin-1
// diacritic variants onto their base letters, the normalization most
// medieval-corpus renderings disagree on.
func DefaultVariants() []Variant {
	return []Variant{
		{"a", regexp.MustCompile(`[\x{00E0}-\x{00E5}]`)},
		{"c", regexp.MustCompile(`\x{00E7}`)},
		{"e", regexp.MustCompile(`[\x{00E8}-\x{00EB}]`)},
		{"i", regexp.MustCompile(`[\x{00EC}-\x{00EF}]`)},
		{"n", regexp.MustCompile(`\x{00F1}`)},
		{"o", regexp.MustCompile(`[\x{00F2}-\x{00F6}]`)},
		{"u", regexp.MustCompile(`[\x{00F9}-\x{00FC}]`)},
		{"y", regexp.MustCompile(`[\x{00FD}\x{00FF}]`)},
	}
}
