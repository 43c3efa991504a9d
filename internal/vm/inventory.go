package vm

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// inventoryFile is the YAML shape used by Export and Import.
type inventoryFile struct {
	VMs []inventoryEntry `yaml:"vms"`
}

type inventoryEntry struct {
	Name    string   `yaml:"name"`
	Alias   string   `yaml:"alias,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	State   string   `yaml:"state,omitempty"`
	Console *Console `yaml:"console,omitempty"`
	Notes   string   `yaml:"notes,omitempty"`
}

// Export writes the whole inventory as YAML.
func (s *Store) Export(w io.Writer) error {
	vms, err := s.List("")
	if err != nil {
		return err
	}

	inv := inventoryFile{VMs: make([]inventoryEntry, 0, len(vms))}
	for _, v := range vms {
		e := inventoryEntry{
			Name:  v.Name,
			Alias: v.Alias,
			Tags:  v.Tags,
			State: string(v.State),
			Notes: v.Notes,
		}
		if v.Console != (Console{}) {
			c := v.Console
			e.Console = &c
		}
		inv.VMs = append(inv.VMs, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(inv); err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}
	return enc.Close()
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Added   []string
	Skipped []string // names already present
}

// Import adds every VM in the YAML document read from r. Entries whose name
// is already registered are skipped; any other invalid entry aborts the
// import before anything is written.
func (s *Store) Import(r io.Reader, defaults Console) (*ImportResult, error) {
	var inv inventoryFile
	if err := yaml.NewDecoder(r).Decode(&inv); err != nil {
		if errors.Is(err, io.EOF) {
			return &ImportResult{}, nil
		}
		return nil, fmt.Errorf("parsing inventory: %w", err)
	}

	type pending struct {
		name string
		opts AddOptions
	}
	var todo []pending
	seen := map[string]bool{}
	for i, e := range inv.VMs {
		if err := ValidateName(e.Name); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("entry %d: duplicate name %q", i+1, e.Name)
		}
		seen[e.Name] = true
		if _, err := normalizeTags(e.Tags); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		opts := AddOptions{Alias: e.Alias, Tags: e.Tags, Notes: e.Notes, Console: defaults}
		if e.State != "" {
			st, err := ParseState(e.State)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			opts.State = st
		}
		if e.Console != nil {
			opts.Console = *e.Console
		}
		todo = append(todo, pending{name: e.Name, opts: opts})
	}

	res := &ImportResult{}
	for _, p := range todo {
		if _, err := s.Add(p.name, p.opts); err != nil {
			if errors.Is(err, ErrNameTaken) {
				res.Skipped = append(res.Skipped, p.name)
				continue
			}
			return res, err
		}
		res.Added = append(res.Added, p.name)
	}
	return res, nil
}
