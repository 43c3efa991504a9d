package console

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestPasswords(t *testing.T, passphrase string) *Passwords {
	t.Helper()
	return newPasswordsAt(filepath.Join(t.TempDir(), "console.age"), passphrase)
}

func TestPasswords_SetGet(t *testing.T) {
	p := newTestPasswords(t, "hunter2")

	if err := p.Set("vm-a", "s3cret"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := p.Get("vm-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("Get = %q", got)
	}

	raw, err := os.ReadFile(p.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "s3cret") {
		t.Fatal("password stored in plaintext")
	}
	if !strings.Contains(string(raw), "BEGIN AGE ENCRYPTED FILE") {
		t.Fatal("file should be armored age")
	}
	info, err := os.Stat(p.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestPasswords_Missing(t *testing.T) {
	p := newTestPasswords(t, "pw")

	if _, err := p.Get("vm-a"); !errors.Is(err, ErrNoPassword) {
		t.Fatalf("empty store: expected ErrNoPassword, got %v", err)
	}
	if err := p.Set("vm-a", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get("vm-b"); !errors.Is(err, ErrNoPassword) {
		t.Fatalf("unknown id: expected ErrNoPassword, got %v", err)
	}
}

func TestPasswords_WrongPassphrase(t *testing.T) {
	p := newTestPasswords(t, "right")
	if err := p.Set("vm-a", "x"); err != nil {
		t.Fatal(err)
	}

	wrong := newPasswordsAt(p.Path(), "wrong")
	if _, err := wrong.Get("vm-a"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestPasswords_Corrupted(t *testing.T) {
	p := newTestPasswords(t, "pw")
	if err := os.WriteFile(p.Path(), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get("vm-a"); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
}

func TestPasswords_DeleteAndIDs(t *testing.T) {
	p := newTestPasswords(t, "pw")

	if err := p.Delete("nothing-yet"); err != nil {
		t.Fatalf("Delete on empty store: %v", err)
	}
	for _, id := range []string{"b", "a", "c"} {
		if err := p.Set(id, "pw-"+id); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Delete("b"); err != nil {
		t.Fatal(err)
	}

	ids, err := p.IDs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Fatalf("IDs = %v", ids)
	}
}

func TestPasswords_EmptyID(t *testing.T) {
	p := newTestPasswords(t, "pw")
	if err := p.Set("", "x"); err == nil {
		t.Fatal("empty id should be rejected")
	}
}
