package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ContentFilter decides whether a piece of text trips a rule.
// Match returns the offending token when it does.
type ContentFilter interface {
	Match(text string) (token string, ok bool)
}

// RegexFilter matches text against a compiled alternation of patterns.
// The zero value never matches.
type RegexFilter struct {
	re *regexp.Regexp
}

// NewRegexFilter compiles expr. Blank expressions produce a filter that never matches.
func NewRegexFilter(expr string) (*RegexFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &RegexFilter{}, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile content rule %q: %w", expr, err)
	}
	return &RegexFilter{re: re}, nil
}

// NewWordFilter builds a case-insensitive filter from a list of literal words.
func NewWordFilter(words ...string) *RegexFilter {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return &RegexFilter{}
	}
	return &RegexFilter{re: regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))}
}

func (f *RegexFilter) Match(text string) (string, bool) {
	if f == nil || f.re == nil {
		return "", false
	}
	loc := f.re.FindStringIndex(text)
	if loc == nil || loc[0] == loc[1] {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}
