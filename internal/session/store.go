package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
)

// descriptorPrefix namespaces session descriptor files so other records in
// the same directory are left alone during enumeration and wipes.
const descriptorPrefix = "vbsess-"

// Store persists session descriptors as JSON files, one per session,
// under ~/.vboxkit/sessions/ by default.
type Store struct {
	dir string
}

// NewStore creates a session store in the default location.
func NewStore() (*Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(home, ".vboxkit", "sessions"))
}

// NewStoreAt creates a session store rooted at dir.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, descriptorPrefix+id+".json")
}

// Save persists a descriptor to disk.
func (s *Store) Save(d *Descriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(d.UUID), data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load reads a descriptor from disk by internal ID. A descriptor missing
// its name or identity is malformed and reported as ErrMissingField.
func (s *Store) Load(id string) (*Descriptor, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}

	if d.Name == "" {
		return nil, fmt.Errorf("descriptor %s has no name: %w", id, hypervisor.ErrMissingField)
	}
	if d.UUID == "" {
		return nil, fmt.Errorf("descriptor %s has no uuid: %w", id, hypervisor.ErrMissingField)
	}

	return &d, nil
}

// Enum returns the internal IDs of every persisted descriptor, in
// directory order.
func (s *Store) Enum() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, descriptorPrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, descriptorPrefix), ".json"))
	}

	return ids, nil
}

// Delete removes a descriptor file. Deleting an absent descriptor is a
// no-op.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// Dir returns the descriptor storage directory.
func (s *Store) Dir() string {
	return s.dir
}
