package toolbar

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/store"
	"github.com/rnwolfe/vmdeck/internal/vm"
)

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenPath(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sample() []vm.VM {
	return []vm.VM{
		{Name: "web-server-1", State: vm.StateRunning, Tags: []string{"prod"}},
		{Name: "database-2", State: vm.StateShutoff, Tags: []string{"prod"}},
		{Name: "web-cache-3", State: vm.StatePaused},
	}
}

func names(rs []fuzzy.Ranked[vm.VM]) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Item.Name
	}
	return out
}

func TestLoad_DefaultsWhenUnsaved(t *testing.T) {
	db := openDB(t)

	st, err := Load(db.Conn(), Default(fuzzy.ModeContains))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := State{Mode: fuzzy.ModeContains, Sort: SortScore}
	if st != want {
		t.Fatalf("Load = %+v, want %+v", st, want)
	}
}

func TestSaveLoadReset(t *testing.T) {
	db := openDB(t)
	saved := State{Query: "web", StateFilter: vm.StateRunning, Mode: fuzzy.ModeContains, Sort: SortName}

	if err := Save(db.Conn(), saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(db.Conn(), Default(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != saved {
		t.Fatalf("Load = %+v, want %+v", got, saved)
	}

	if err := Reset(db.Conn()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ = Load(db.Conn(), Default(""))
	if got != Default(fuzzy.ModeFuzzy) {
		t.Fatalf("after Reset Load = %+v", got)
	}
}

func TestLoad_RejectsCorruptValues(t *testing.T) {
	db := openDB(t)
	if err := store.SetKV(db.Conn(), "toolbar.sort", "random"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(db.Conn(), Default("")); !errors.Is(err, ErrUnknownSort) {
		t.Fatalf("expected ErrUnknownSort, got %v", err)
	}
}

func TestApply_BlankQueryKeepsOrder(t *testing.T) {
	got := Apply(Default(""), sample())
	if !reflect.DeepEqual(names(got), []string{"web-server-1", "database-2", "web-cache-3"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestApply_FuzzyQuery(t *testing.T) {
	got := Apply(State{Query: "web", Mode: fuzzy.ModeFuzzy}, sample())
	if !reflect.DeepEqual(names(got), []string{"web-cache-3", "web-server-1"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestApply_ContainsQuery(t *testing.T) {
	got := Apply(State{Query: "web", Mode: fuzzy.ModeContains}, sample())
	if !reflect.DeepEqual(names(got), []string{"web-server-1", "web-cache-3"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestApply_StateFilterAndTags(t *testing.T) {
	got := Apply(State{Query: "prod", StateFilter: vm.StateShutoff, Mode: fuzzy.ModeFuzzy}, sample())
	if !reflect.DeepEqual(names(got), []string{"database-2"}) {
		t.Fatalf("got %v", names(got))
	}
}

func TestApply_Sorts(t *testing.T) {
	got := Apply(State{Sort: SortName}, sample())
	if !reflect.DeepEqual(names(got), []string{"database-2", "web-cache-3", "web-server-1"}) {
		t.Fatalf("name sort: got %v", names(got))
	}

	got = Apply(State{Sort: SortState}, sample())
	if !reflect.DeepEqual(names(got), []string{"web-server-1", "web-cache-3", "database-2"}) {
		t.Fatalf("state sort: got %v", names(got))
	}
}

func TestParseSort(t *testing.T) {
	for in, want := range map[string]Sort{"": SortScore, "Name": SortName, "state": SortState} {
		got, err := ParseSort(in)
		if err != nil || got != want {
			t.Errorf("ParseSort(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSort("size"); err == nil {
		t.Fatal("expected error")
	}
}
