// Package filter implements the subscription/chat filter-word matching
// described in the delivery pipeline: a word list split into positive
// and negated ("!word") terms, matched as case-insensitive substrings
// against a rendered message body.
package filter

import "strings"

// Matcher tests rendered message bodies against a fixed set of filter
// words. It is built once per effective filter-word list and reused
// across every item considered for delivery against that list.
type Matcher struct {
	positive    *trie
	negative    *trie
	hasPositive bool
}

// NewMatcher builds a Matcher from a raw filter-word list. Words
// prefixed with "!" are negated (suppress a match); all others are
// positive (require a match, unless the positive set is empty). Words
// are compared case-insensitively.
func NewMatcher(words []string) *Matcher {
	var positive, negative []string

	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(w, "!"); ok {
			if rest != "" {
				negative = append(negative, rest)
			}
			continue
		}
		positive = append(positive, w)
	}

	return &Matcher{
		positive:    buildTrie(positive),
		negative:    buildTrie(negative),
		hasPositive: len(positive) > 0,
	}
}

// Allows reports whether text passes the filter: it is suppressed if
// any negated word matches, otherwise it passes if there are no
// positive words or any positive word matches. text is lowercased
// before matching.
func (m *Matcher) Allows(text string) bool {
	lowered := strings.ToLower(text)

	if m.negative.matchesAny(lowered) {
		return false
	}
	if !m.hasPositive {
		return true
	}
	return m.positive.matchesAny(lowered)
}
