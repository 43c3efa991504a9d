package fuzzy

import "testing"

func TestMatchText_EmptyQuery(t *testing.T) {
	for _, text := range []string{"anything", ""} {
		m, ok := MatchText("", text)
		if !ok {
			t.Fatalf("empty query should match %q", text)
		}
		if m.Score != 1 {
			t.Fatalf("empty query score should be 1, got %v", m.Score)
		}
		if len(m.Positions) != 0 {
			t.Fatalf("empty query should have no positions, got %v", m.Positions)
		}
	}
}

func TestMatchText_EmptyText(t *testing.T) {
	if _, ok := MatchText("a", ""); ok {
		t.Fatal("non-empty query should not match empty text")
	}
}

func TestMatchText_CaseInsensitive(t *testing.T) {
	if _, ok := MatchText("WEB", "web-server-1"); !ok {
		t.Fatal("upper-case query should match lower-case text")
	}
	if _, ok := MatchText("web", "Web-Server-1"); !ok {
		t.Fatal("lower-case query should match mixed-case text")
	}
}

func TestMatchText_OutOfOrder(t *testing.T) {
	if _, ok := MatchText("vd", "development"); ok {
		t.Fatal("out-of-order runes should not match")
	}
}

func TestMatchText_QueryLongerThanText(t *testing.T) {
	if _, ok := MatchText("abcd", "abc"); ok {
		t.Fatal("query longer than text should not match")
	}
}

func TestMatchText_Positions(t *testing.T) {
	cases := []struct {
		query, text string
		want        []int
	}{
		{"wc3", "web-cache-3", []int{0, 4, 10}},
		{"web", "web-server-1", []int{0, 1, 2}},
		{"dv", "development", []int{0, 2}},
		{"ss", "my-ssh", []int{3, 4}},
	}
	for _, tc := range cases {
		m, ok := MatchText(tc.query, tc.text)
		if !ok {
			t.Errorf("MatchText(%q, %q) did not match", tc.query, tc.text)
			continue
		}
		if len(m.Positions) != len(tc.want) {
			t.Errorf("MatchText(%q, %q) positions = %v, want %v", tc.query, tc.text, m.Positions, tc.want)
			continue
		}
		for i := range tc.want {
			if m.Positions[i] != tc.want[i] {
				t.Errorf("MatchText(%q, %q) positions = %v, want %v", tc.query, tc.text, m.Positions, tc.want)
				break
			}
		}
	}
}

func TestMatchText_PositionsInvariant(t *testing.T) {
	pairs := [][2]string{
		{"a", "banana"},
		{"nn", "banana"},
		{"bnn", "banana"},
		{"vm", "my-virtual-machine"},
		{"xyz", "x_y_z"},
	}
	for _, p := range pairs {
		m, ok := MatchText(p[0], p[1])
		if !ok {
			t.Fatalf("MatchText(%q, %q) should match", p[0], p[1])
		}
		if len(m.Positions) != len([]rune(p[0])) {
			t.Fatalf("MatchText(%q, %q): %d positions for %d query runes", p[0], p[1], len(m.Positions), len(p[0]))
		}
		prev := -1
		for _, pos := range m.Positions {
			if pos <= prev || pos >= len([]rune(p[1])) {
				t.Fatalf("MatchText(%q, %q): bad positions %v", p[0], p[1], m.Positions)
			}
			prev = pos
		}
	}
}

func TestMatchText_ExactScore(t *testing.T) {
	// w@0: 1+3, c@4 after '-': 1+3, 3@10 after '-': 1+3 → 12 / 1.1
	m, _ := MatchText("wc3", "web-cache-3")
	want := 12 / 1.1
	if diff := m.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want %v", m.Score, want)
	}

	// a@1: 1, b@2: 1 + consecutive 2 → 4 / 0.4
	m, _ = MatchText("ab", "xaby")
	if diff := m.Score - 10; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want 10", m.Score)
	}
}

// "xaby" vs "a_b" is the usual illustration of the consecutive bonus, but
// under this scoring "a_b" wins: both of its runes sit on word boundaries and
// the text is shorter (8/0.3 = 26.7 against 4/0.4 = 10). The adjacency check
// therefore compares texts that differ only in whether the runes touch.
func TestMatchText_ConsecutiveBonus(t *testing.T) {
	adjacent, _ := MatchText("ab", "xabx")
	gapped, _ := MatchText("ab", "xaxb")
	if adjacent.Score <= gapped.Score {
		t.Fatalf("adjacent match (%v) should beat gapped match (%v)", adjacent.Score, gapped.Score)
	}
}

func TestMatchText_BoundariesOutweighAdjacency(t *testing.T) {
	boundaries, _ := MatchText("ab", "a_b")
	adjacent, _ := MatchText("ab", "xaby")
	if !approx(boundaries.Score, 8/0.3) || !approx(adjacent.Score, 10) {
		t.Fatalf("scores = %v, %v; want 26.67, 10", boundaries.Score, adjacent.Score)
	}
	if boundaries.Score <= adjacent.Score {
		t.Fatal("two boundary runes in a short text should beat one adjacent pair")
	}
}

func TestMatchText_WordBoundaryBonus(t *testing.T) {
	boundary, _ := MatchText("b", "a b")
	middle, _ := MatchText("b", "ab")
	if boundary.Score <= middle.Score {
		t.Fatalf("boundary match (%v) should beat middle match (%v)", boundary.Score, middle.Score)
	}

	for _, sep := range []string{" ", "-", "_"} {
		with, _ := MatchText("b", "xa"+sep+"b")
		without, _ := MatchText("b", "xa.b")
		if with.Score <= without.Score {
			t.Errorf("separator %q should earn a boundary bonus", sep)
		}
	}
}

func TestMatchText_ShorterTextPreferred(t *testing.T) {
	short, _ := MatchText("web", "web-1")
	long, _ := MatchText("web", "web-server-1")
	if short.Score <= long.Score {
		t.Fatalf("shorter text (%v) should beat longer text (%v)", short.Score, long.Score)
	}
}

func TestMatchText_Unicode(t *testing.T) {
	m, ok := MatchText("ÉT", "café-été")
	if !ok {
		t.Fatal("unicode query should match case-insensitively")
	}
	if m.Positions[0] != 3 || m.Positions[1] != 6 {
		t.Fatalf("positions should be rune indices, got %v", m.Positions)
	}
}

func TestMatchText_RealWorldCases(t *testing.T) {
	cases := []struct {
		query, text string
		shouldMatch bool
	}{
		{"web", "web-server-1", true},
		{"ws1", "web-server-1", true},
		{"db", "database-2", true},
		{"d2", "database-2", true},
		{"web", "database-2", false},
		{"win", "windows-11-dev", true},
		{"w11d", "windows-11-dev", true},
		{"11w", "windows-11-dev", false},
	}
	for _, tc := range cases {
		_, ok := MatchText(tc.query, tc.text)
		if ok != tc.shouldMatch {
			t.Errorf("MatchText(%q, %q) = %v, want %v", tc.query, tc.text, ok, tc.shouldMatch)
		}
	}
}

func approx(got, want float64) bool {
	d := got - want
	return d < 1e-9 && d > -1e-9
}
