package vm

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store owns VM inventory persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// AddOptions carries the optional fields of a new VM.
type AddOptions struct {
	Alias   string
	Tags    []string
	State   State
	Console Console
	Notes   string
}

// Add registers a new VM.
func (s *Store) Add(name string, opts AddOptions) (*VM, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(opts.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFree(name, ""); err != nil {
		return nil, err
	}

	state := opts.State
	if state == "" {
		state = StateUnknown
	}
	now := s.now().UTC()
	v := &VM{
		ID:        uuid.New().String(),
		Name:      name,
		Alias:     strings.TrimSpace(opts.Alias),
		Tags:      tags,
		State:     state,
		Console:   opts.Console,
		Notes:     opts.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(
		`INSERT INTO vms (id, name, alias, tags, state, console_protocol, console_host, console_port, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Alias, joinTags(v.Tags), string(v.State),
		v.Console.Protocol, v.Console.Host, v.Console.Port, v.Notes,
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert vm: %w", err)
	}
	return v, nil
}

// List returns VMs ordered by name. An empty filter returns every state.
func (s *Store) List(filter State) ([]VM, error) {
	query := `SELECT ` + vmColumns + ` FROM vms`
	var args []any
	if filter != "" {
		query += ` WHERE state = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vms: %w", err)
	}
	defer rows.Close()

	var out []VM
	for rows.Next() {
		v, err := scanVM(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// Get resolves ref as an exact name, then an alias, then an ID prefix of at
// least four characters.
func (s *Store) Get(ref string) (*VM, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	v, err := scanVM(s.db.QueryRow(`SELECT `+vmColumns+` FROM vms WHERE name = ?`, ref))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if v, err := s.getUnique(`WHERE alias = ?`, ref, ref); err == nil || !errors.Is(err, ErrNotFound) {
		return v, err
	}

	if len(ref) >= 4 {
		return s.getUnique(`WHERE id LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(ref))+"%", ref)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

func (s *Store) getUnique(where, arg, ref string) (*VM, error) {
	rows, err := s.db.Query(`SELECT `+vmColumns+` FROM vms `+where+` LIMIT 2`, arg)
	if err != nil {
		return nil, fmt.Errorf("load vm: %w", err)
	}
	defer rows.Close()

	var found []*VM
	for rows.Next() {
		v, err := scanVM(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load vm: %w", err)
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %q matches more than one vm", ErrAmbiguous, ref)
}

// Rename gives the VM referenced by ref a new name. The new name must be
// valid, differ from the current one and not belong to another VM.
func (s *Store) Rename(ref, newName string) (*VM, error) {
	v, err := s.Get(ref)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == v.Name {
		return nil, fmt.Errorf("%w: %q", ErrSameName, newName)
	}
	if err := ValidateName(newName); err != nil {
		return nil, err
	}
	if err := s.ensureFree(newName, v.ID); err != nil {
		return nil, err
	}

	v.Name = newName
	v.UpdatedAt = s.now().UTC()
	if _, err := s.db.Exec(`UPDATE vms SET name = ?, updated_at = ? WHERE id = ?`,
		v.Name, formatTime(v.UpdatedAt), v.ID); err != nil {
		return nil, fmt.Errorf("rename vm: %w", err)
	}
	return v, nil
}

// Remove deletes the VM referenced by ref and returns what was removed.
func (s *Store) Remove(ref string) (*VM, error) {
	v, err := s.Get(ref)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(`DELETE FROM vms WHERE id = ?`, v.ID); err != nil {
		return nil, fmt.Errorf("remove vm: %w", err)
	}
	return v, nil
}

// SetState records a new observed state.
func (s *Store) SetState(ref string, state State) (*VM, error) {
	return s.update(ref, func(v *VM) { v.State = state })
}

// SetNotes replaces the VM's markdown notes.
func (s *Store) SetNotes(ref, notes string) (*VM, error) {
	return s.update(ref, func(v *VM) { v.Notes = notes })
}

// SetAlias replaces the VM's alias. An empty alias clears it.
func (s *Store) SetAlias(ref, alias string) (*VM, error) {
	return s.update(ref, func(v *VM) { v.Alias = strings.TrimSpace(alias) })
}

// SetConsole replaces the VM's console endpoint.
func (s *Store) SetConsole(ref string, c Console) (*VM, error) {
	return s.update(ref, func(v *VM) { v.Console = c })
}

// Tag adds tags; existing tags are kept and duplicates ignored.
func (s *Store) Tag(ref string, tags ...string) (*VM, error) {
	add, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}
	return s.update(ref, func(v *VM) {
		for _, t := range add {
			if !slices.Contains(v.Tags, t) {
				v.Tags = append(v.Tags, t)
			}
		}
	})
}

// Untag removes tags.
func (s *Store) Untag(ref string, tags ...string) (*VM, error) {
	remove, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(remove))
	for _, t := range remove {
		drop[t] = true
	}
	return s.update(ref, func(v *VM) {
		kept := v.Tags[:0]
		for _, t := range v.Tags {
			if !drop[t] {
				kept = append(kept, t)
			}
		}
		v.Tags = kept
	})
}

// Count returns the number of VMs per state.
func (s *Store) Count() (map[State]int, error) {
	rows, err := s.db.Query(`SELECT state, COUNT(*) FROM vms GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count vms: %w", err)
	}
	defer rows.Close()

	out := make(map[State]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[State(st)] = n
	}
	return out, rows.Err()
}

func (s *Store) update(ref string, fn func(*VM)) (*VM, error) {
	v, err := s.Get(ref)
	if err != nil {
		return nil, err
	}
	fn(v)
	v.UpdatedAt = s.now().UTC()

	_, err = s.db.Exec(
		`UPDATE vms SET alias = ?, tags = ?, state = ?, console_protocol = ?, console_host = ?,
		 console_port = ?, notes = ?, updated_at = ? WHERE id = ?`,
		v.Alias, joinTags(v.Tags), string(v.State), v.Console.Protocol, v.Console.Host,
		v.Console.Port, v.Notes, formatTime(v.UpdatedAt), v.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update vm %s: %w", v.Name, err)
	}
	return v, nil
}

func (s *Store) ensureFree(name, exceptID string) error {
	var id string
	err := s.db.QueryRow(`SELECT id FROM vms WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check duplicates: %w", err)
	}
	if id == exceptID {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNameTaken, name)
}

const vmColumns = `id, name, alias, tags, state, console_protocol, console_host, console_port, notes, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanVM(sc scanner) (*VM, error) {
	var v VM
	var tags, state, created, updated string
	err := sc.Scan(&v.ID, &v.Name, &v.Alias, &tags, &state,
		&v.Console.Protocol, &v.Console.Host, &v.Console.Port, &v.Notes, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan vm: %w", err)
	}
	v.Tags = splitTags(tags)
	v.State = State(state)
	v.CreatedAt = parseTime(created)
	v.UpdatedAt = parseTime(updated)
	return &v, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
