// Package fuzzy ranks items against a short, case-insensitive query.
//
// Two modes are offered. Fuzzy matching accepts the query's characters in
// order with gaps and scores the result; substring matching keeps items
// whose text contains the query verbatim and does no ranking at all.
//
// Everything here is pure: no state survives a call, so the functions are
// safe for concurrent use.
package fuzzy

import (
	"strings"
	"unicode"
)

const (
	consecutiveBonus = 2
	boundaryBonus    = 3
)

// Match describes a successful match of a query against one text.
type Match struct {
	// Score grows with match quality and shrinks with text length.
	Score float64
	// Positions holds one rune index into the text per query rune,
	// strictly increasing.
	Positions []int
}

// MatchText reports whether every rune of query occurs in text, in order and
// ignoring case. The bool is false when there is no match; the Match value is
// meaningless in that case.
//
// Scoring rewards:
//   - each matched rune (+1)
//   - matches at the start of text or after a space, - or _ (+3)
//   - matches directly after the previous matched rune (+2)
//
// The raw total is scaled by 10/len(text) so shorter texts win ties in
// quality.
func MatchText(query, text string) (Match, bool) {
	if query == "" {
		return Match{Score: 1, Positions: []int{}}, true
	}
	if text == "" {
		return Match{}, false
	}

	q := lowerRunes(query)
	t := lowerRunes(text)

	positions := make([]int, 0, len(q))
	score := 0
	consecutive := 0
	qi := 0

	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		score++
		if ti == 0 || isBoundary(t[ti-1]) {
			score += boundaryBonus
		}
		if n := len(positions); n > 0 && positions[n-1] == ti-1 {
			consecutive += consecutiveBonus
		}
		positions = append(positions, ti)
		qi++
	}

	if qi < len(q) {
		return Match{}, false
	}

	total := float64(score + consecutive)
	return Match{
		Score:     total / (float64(len(t)) * 0.1),
		Positions: positions,
	}, true
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '-' || r == '_'
}

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

// blank reports whether the query should match everything.
func blank(query string) bool {
	return strings.TrimSpace(query) == ""
}
