// Package vm keeps the local inventory of virtual machines.
//
// The hypervisor is out of process; this package only records what vmdeck
// knows about each machine (names, tags, last observed state, console
// endpoint, notes) in the shared SQLite database.
package vm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	ErrNotFound    = errors.New("vm not found")
	ErrNameTaken   = errors.New("vm name already in use")
	ErrInvalidName = errors.New("invalid vm name")
	ErrSameName    = errors.New("new name matches the current name")
	ErrAmbiguous   = errors.New("vm reference is ambiguous")
	ErrBadTag      = errors.New("invalid tag")
)

// State is the last observed power state of a VM.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateShutoff State = "shutoff"
	StateCrashed State = "crashed"
	StateUnknown State = "unknown"
)

// AllStates lists every state in display order.
var AllStates = []State{StateRunning, StatePaused, StateShutoff, StateCrashed, StateUnknown}

// ParseState parses a state name. "stopped" and "off" are accepted for shutoff.
func ParseState(s string) (State, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "stopped", "off":
		return StateShutoff, nil
	default:
		for _, st := range AllStates {
			if string(st) == v {
				return st, nil
			}
		}
	}
	return "", fmt.Errorf("unknown vm state %q", s)
}

// Console is the remote display endpoint of a VM.
type Console struct {
	Protocol string `yaml:"protocol"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
}

// VM is one inventory entry.
type VM struct {
	ID        string
	Name      string
	Alias     string
	Tags      []string
	State     State
	Console   Console
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchTexts returns every string a VM can be found by: its name, alias and
// tags.
func SearchTexts(v VM) []string {
	out := make([]string, 0, 2+len(v.Tags))
	out = append(out, v.Name)
	if v.Alias != "" {
		out = append(out, v.Alias)
	}
	return append(out, v.Tags...)
}

// Title implements tui.Item.
func (v VM) Title() string { return v.Name }

// Description implements tui.Item.
func (v VM) Description() string {
	parts := []string{string(v.State)}
	if v.Alias != "" {
		parts = append(parts, "aka "+v.Alias)
	}
	if len(v.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(v.Tags, " #"))
	}
	return strings.Join(parts, "  ")
}

// SearchTexts implements tui.Item.
func (v VM) SearchTexts() []string { return SearchTexts(v) }

// ValidateName checks that name is usable as a VM name: lower-case letters,
// digits and single hyphens.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	if !slug.IsSlug(name) {
		if s := Suggest(name); s != "" {
			return fmt.Errorf("%w: %q (try %q)", ErrInvalidName, name, s)
		}
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Suggest returns a valid name derived from s, or "" if none can be made.
func Suggest(s string) string {
	return slug.Make(s)
}

// normalizeTags lower-cases, trims and de-duplicates tags, dropping a
// leading '#'. Tags are stored comma-joined, so a comma is rejected.
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.Contains(t, tagSep) {
			return nil, fmt.Errorf("%w: %q must not contain %q", ErrBadTag, t, tagSep)
		}
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

const tagSep = ","

func joinTags(tags []string) string {
	return strings.Join(tags, tagSep)
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, tagSep)
}
