// Package toolbar persists the VM list's filter bar between runs: the search
// query, a state filter, the search mode and the sort order.
package toolbar

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/store"
	"github.com/rnwolfe/vmdeck/internal/vm"
)

const keyPrefix = "toolbar."

var ErrUnknownSort = errors.New("unknown sort order")

// Sort is the order applied after filtering.
type Sort string

const (
	// SortScore keeps search order: relevance in fuzzy mode, name otherwise.
	SortScore Sort = "score"
	SortName  Sort = "name"
	SortState Sort = "state"
)

// ParseSort parses a sort name. The empty string means SortScore.
func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.ToLower(strings.TrimSpace(s))); v {
	case "", SortScore:
		return SortScore, nil
	case SortName, SortState:
		return v, nil
	}
	return "", fmt.Errorf("%w %q (use score, name or state)", ErrUnknownSort, s)
}

// State is the persisted toolbar.
type State struct {
	Query       string
	StateFilter vm.State // empty means every state
	Mode        fuzzy.Mode
	Sort        Sort
}

// Default returns the toolbar used when nothing has been saved yet.
func Default(mode fuzzy.Mode) State {
	if mode == "" {
		mode = fuzzy.ModeFuzzy
	}
	return State{Mode: mode, Sort: SortScore}
}

// Load reads the saved toolbar. Unset fields fall back to def.
func Load(db *sql.DB, def State) (State, error) {
	st := def

	vals := map[string]string{}
	for _, k := range []string{"query", "state", "mode", "sort"} {
		v, err := store.GetKV(db, keyPrefix+k)
		if err != nil {
			return st, err
		}
		vals[k] = v
	}

	st.Query = vals["query"]
	if v := vals["state"]; v != "" {
		s, err := vm.ParseState(v)
		if err != nil {
			return st, fmt.Errorf("saved toolbar state: %w", err)
		}
		st.StateFilter = s
	}
	if v := vals["mode"]; v != "" {
		m, err := fuzzy.ParseMode(v)
		if err != nil {
			return st, fmt.Errorf("saved toolbar mode: %w", err)
		}
		st.Mode = m
	}
	if v := vals["sort"]; v != "" {
		s, err := ParseSort(v)
		if err != nil {
			return st, fmt.Errorf("saved toolbar sort: %w", err)
		}
		st.Sort = s
	}
	return st, nil
}

// Save persists every field of st.
func Save(db *sql.DB, st State) error {
	pairs := [][2]string{
		{"query", st.Query},
		{"state", string(st.StateFilter)},
		{"mode", string(st.Mode)},
		{"sort", string(st.Sort)},
	}
	for _, p := range pairs {
		if err := store.SetKV(db, keyPrefix+p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets the saved toolbar.
func Reset(db *sql.DB) error {
	return store.DeleteKVPrefix(db, keyPrefix)
}

// Apply filters vms by state, searches them with the toolbar query and mode,
// then sorts them.
func Apply(st State, vms []vm.VM) []fuzzy.Ranked[vm.VM] {
	if st.StateFilter != "" {
		kept := make([]vm.VM, 0, len(vms))
		for _, v := range vms {
			if v.State == st.StateFilter {
				kept = append(kept, v)
			}
		}
		vms = kept
	}

	out := fuzzy.Search(st.Mode, vms, st.Query, vm.SearchTexts)

	switch st.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Item.Name < out[j].Item.Name })
	case SortState:
		sort.SliceStable(out, func(i, j int) bool {
			return stateRank(out[i].Item.State) < stateRank(out[j].Item.State)
		})
	}
	return out
}

func stateRank(s vm.State) int {
	for i, st := range vm.AllStates {
		if st == s {
			return i
		}
	}
	return len(vm.AllStates)
}
