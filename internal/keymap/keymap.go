// Package keymap maps keyboard shortcuts to named actions.
//
// Keys are written the way bubbletea reports them: lower-case, modifiers
// first in the fixed order ctrl, alt, shift, joined with "+" ("ctrl+shift+k").
// ParseKey accepts looser spellings and returns the canonical form.
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrBadKey = errors.New("invalid key")

// Action names something a shortcut triggers.
type Action string

const (
	ActionUp      Action = "up"
	ActionDown    Action = "down"
	ActionSelect  Action = "select"
	ActionCancel  Action = "cancel"
	ActionErase   Action = "erase"
	ActionClear   Action = "clear"
	ActionRename  Action = "rename"
	ActionDelete  Action = "delete"
	ActionConsole Action = "console"
	ActionMode    Action = "toggle-mode"
)

var modifierOrder = []string{"ctrl", "alt", "shift"}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"ctl":     "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"meta":    "alt",
	"shift":   "shift",
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"bs":     "backspace",
	"spc":    "space",
}

// ParseKey normalizes a shortcut such as "Ctrl+Shift+K" or "control-x".
func ParseKey(s string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrBadKey)
	}

	sep := "+"
	if !strings.Contains(raw, "+") && strings.Count(raw, "-") > 0 && len(raw) > 1 {
		sep = "-"
	}
	parts := strings.Split(raw, sep)

	mods := map[string]bool{}
	base := ""
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if m, ok := modifierAliases[p]; ok && i < len(parts)-1 {
			mods[m] = true
			continue
		}
		if i != len(parts)-1 || p == "" {
			return "", fmt.Errorf("%w: %q", ErrBadKey, s)
		}
		if _, isMod := modifierAliases[p]; isMod {
			return "", fmt.Errorf("%w: %q has no key after its modifiers", ErrBadKey, s)
		}
		if a, ok := keyAliases[p]; ok {
			p = a
		}
		base = p
	}

	var b strings.Builder
	for _, m := range modifierOrder {
		if mods[m] {
			b.WriteString(m)
			b.WriteByte('+')
		}
	}
	b.WriteString(base)
	return b.String(), nil
}

// Binding is one shortcut.
type Binding struct {
	Key    string
	Action Action
}

// Map dispatches canonical keys to actions.
type Map struct {
	bindings map[string]Action
}

func New() *Map {
	return &Map{bindings: make(map[string]Action)}
}

// Bind parses key and binds it, replacing any previous binding of that key.
func (m *Map) Bind(key string, action Action) error {
	k, err := ParseKey(key)
	if err != nil {
		return err
	}
	m.bindings[k] = action
	return nil
}

// MustBind is Bind for static tables; it panics on a malformed key.
func (m *Map) MustBind(key string, action Action) *Map {
	if err := m.Bind(key, action); err != nil {
		panic(err)
	}
	return m
}

// Unbind removes key. Unknown keys are ignored.
func (m *Map) Unbind(key string) {
	if k, err := ParseKey(key); err == nil {
		delete(m.bindings, k)
	}
}

// Lookup returns the action bound to key.
func (m *Map) Lookup(key string) (Action, bool) {
	k, err := ParseKey(key)
	if err != nil {
		return "", false
	}
	a, ok := m.bindings[k]
	return a, ok
}

// Bindings returns every binding sorted by action, then key.
func (m *Map) Bindings() []Binding {
	out := make([]Binding, 0, len(m.bindings))
	for k, a := range m.bindings {
		out = append(out, Binding{Key: k, Action: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// KeysFor returns the keys bound to action, sorted.
func (m *Map) KeysFor(action Action) []string {
	var keys []string
	for k, a := range m.bindings {
		if a == action {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Default returns the picker's shortcuts.
func Default() *Map {
	return New().
		MustBind("up", ActionUp).
		MustBind("ctrl+p", ActionUp).
		MustBind("down", ActionDown).
		MustBind("ctrl+n", ActionDown).
		MustBind("enter", ActionSelect).
		MustBind("esc", ActionCancel).
		MustBind("ctrl+c", ActionCancel).
		MustBind("backspace", ActionErase).
		MustBind("ctrl+u", ActionClear).
		MustBind("ctrl+r", ActionRename).
		MustBind("ctrl+d", ActionDelete).
		MustBind("ctrl+o", ActionConsole).
		MustBind("ctrl+t", ActionMode)
}
