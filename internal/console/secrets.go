package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/rnwolfe/vmdeck/internal/config"
)

var (
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrCorrupted       = errors.New("console password file is corrupted or unreadable")
	ErrNoPassword      = errors.New("no console password stored")
)

// passwordFile is the plaintext JSON inside the age envelope, keyed by VM ID.
type passwordFile struct {
	Passwords map[string]string `json:"passwords"`
}

// Passwords is an age-encrypted (scrypt passphrase) store of console
// passwords. Writes go to a temp file that is renamed into place.
type Passwords struct {
	mu         sync.Mutex
	path       string
	passphrase string
}

// NewPasswords opens the store in the XDG data dir.
func NewPasswords(passphrase string) *Passwords {
	return &Passwords{
		path:       filepath.Join(config.GetPaths().DataDir, "console.age"),
		passphrase: passphrase,
	}
}

func newPasswordsAt(path, passphrase string) *Passwords {
	return &Passwords{path: path, passphrase: passphrase}
}

// Path returns the encrypted file location.
func (p *Passwords) Path() string { return p.path }

// Set stores the password for vmID.
func (p *Passwords) Set(vmID, password string) error {
	if vmID == "" {
		return fmt.Errorf("vm id must not be empty")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if data == nil {
		data = &passwordFile{Passwords: map[string]string{}}
	}
	data.Passwords[vmID] = password
	return p.save(data)
}

// Get returns the password for vmID.
func (p *Passwords) Get(vmID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoPassword
	}
	if err != nil {
		return "", err
	}
	pw, ok := data.Passwords[vmID]
	if !ok {
		return "", ErrNoPassword
	}
	return pw, nil
}

// Delete forgets the password for vmID. Missing entries are not an error.
func (p *Passwords) Delete(vmID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, ok := data.Passwords[vmID]; !ok {
		return nil
	}
	delete(data.Passwords, vmID)
	return p.save(data)
}

// IDs returns the VM IDs that have a stored password, sorted.
func (p *Passwords) IDs() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.load()
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(data.Passwords))
	for id := range data.Passwords {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *Passwords) load() (*passwordFile, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, err
	}
	return decrypt(raw, p.passphrase)
}

func (p *Passwords) save(data *passwordFile) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	raw, err := encrypt(data, p.passphrase)
	if err != nil {
		return err
	}
	return atomicWrite(p.path, raw)
}

func encrypt(data *passwordFile, passphrase string) ([]byte, error) {
	plain, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("serializing passwords: %w", err)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age recipient: %w", err)
	}

	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing age encryption: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("encrypting passwords: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

func decrypt(raw []byte, passphrase string) (*passwordFile, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age identity: %w", err)
	}

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(raw)), identity)
	if err != nil {
		// age has no typed error for a bad passphrase.
		msg := err.Error()
		if strings.Contains(msg, "no identity matched") || strings.Contains(msg, "incorrect") {
			return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	var data passwordFile
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if data.Passwords == nil {
		data.Passwords = map[string]string{}
	}
	return &data, nil
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".console-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing password file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing password file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing password file: %w", err)
	}
	success = true
	return nil
}
