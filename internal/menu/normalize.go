package menu

import (
	"fmt"
	"strings"
)

// Replacement is one ordered find->replace rule applied to extracted text.
type Replacement struct {
	Find    string
	Replace string
}

// ParseReplacement parses the "find->replace" flag form.
func ParseReplacement(s string) (Replacement, error) {
	find, replace, ok := strings.Cut(s, "->")
	if !ok {
		return Replacement{}, fmt.Errorf("invalid replacement %q (expected \"find->replace\")", s)
	}
	return Replacement{Find: find, Replace: replace}, nil
}

// Normalizer applies the configured replacement rules plus whitespace
// cleanup to every string a vendor feed extracts.
type Normalizer struct {
	rules []Replacement
}

// NewNormalizer creates a Normalizer over the given rules. Rules apply in
// configuration order.
func NewNormalizer(rules []Replacement) *Normalizer {
	return &Normalizer{rules: rules}
}

// Apply runs every rule left-to-right as a literal substring replacement,
// then collapses runs of spaces and trims. With no rules (or empty input)
// the text passes through untouched.
func (n *Normalizer) Apply(text string) string {
	if text == "" || len(n.rules) == 0 {
		return text
	}

	result := text
	for _, r := range n.rules {
		result = strings.ReplaceAll(result, r.Find, r.Replace)
	}

	// Replacements can leave double spaces behind.
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}

	return strings.TrimSpace(result)
}
