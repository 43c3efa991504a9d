package fuzzy

import (
	"fmt"
	"sort"
	"strings"
)

// Ranked is one item of a ranked search result.
type Ranked[T any] struct {
	Item T
	// Score is the best score across the item's texts.
	Score float64
	// Matches maps every text that matched to its matched positions.
	Matches map[string][]int
}

// Texts projects an item onto the strings it can be found by.
type Texts[T any] func(T) []string

// RankAll scores every item against query and returns those with at least one
// matching text, best first. Items with equal scores keep their input order.
//
// A blank query returns every item in input order with score 1.
func RankAll[T any](items []T, query string, texts Texts[T]) []Ranked[T] {
	if texts == nil {
		panic("fuzzy: RankAll called with nil texts projector")
	}
	if blank(query) {
		return everything(items)
	}

	out := make([]Ranked[T], 0, len(items))
	for _, item := range items {
		best := 0.0
		var matches map[string][]int
		for _, text := range texts(item) {
			m, ok := MatchText(query, text)
			if !ok {
				continue
			}
			if matches == nil {
				matches = make(map[string][]int)
			}
			matches[text] = m.Positions
			if m.Score > best {
				best = m.Score
			}
		}
		if best == 0 {
			continue
		}
		out = append(out, Ranked[T]{Item: item, Score: best, Matches: matches})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// FilterContains keeps the items with at least one text containing query,
// ignoring case. Input order is preserved and no scoring happens.
func FilterContains[T any](items []T, query string, texts Texts[T]) []T {
	if texts == nil {
		panic("fuzzy: FilterContains called with nil texts projector")
	}
	if blank(query) {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	needle := strings.ToLower(query)
	var out []T
	for _, item := range items {
		for _, text := range texts(item) {
			if strings.Contains(strings.ToLower(text), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Mode selects how Search matches.
type Mode string

const (
	ModeFuzzy    Mode = "fuzzy"
	ModeContains Mode = "contains"
)

// ParseMode parses a mode name. The empty string means ModeFuzzy.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFuzzy:
		return ModeFuzzy, nil
	case ModeContains:
		return ModeContains, nil
	}
	return "", fmt.Errorf("unknown search mode %q (want %q or %q)", s, ModeFuzzy, ModeContains)
}

// Search runs the given mode and returns results in a common shape.
// In contains mode every kept item scores 1, has no match positions, and
// results stay in input order.
func Search[T any](mode Mode, items []T, query string, texts Texts[T]) []Ranked[T] {
	if mode != ModeContains {
		return RankAll(items, query, texts)
	}
	kept := FilterContains(items, query, texts)
	out := make([]Ranked[T], len(kept))
	for i, item := range kept {
		out[i] = Ranked[T]{Item: item, Score: 1, Matches: map[string][]int{}}
	}
	return out
}

func everything[T any](items []T) []Ranked[T] {
	out := make([]Ranked[T], len(items))
	for i, item := range items {
		out[i] = Ranked[T]{Item: item, Score: 1, Matches: map[string][]int{}}
	}
	return out
}
