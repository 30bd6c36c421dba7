// Package secretstore defines the credential-storage boundary for saved
// database connections. An OS-native keychain binding is external-
// collaborator work; this package ships only the interface and a
// file-based default implementation.
package secretstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/beefcake-data/beefcake/internal/model"
)

// SecretStore resolves and stores opaque secret references used by
// config.SavedConnection.SecretRef. It never exposes the underlying
// storage mechanism to callers.
type SecretStore interface {
	// Set stores secret under a freshly generated reference and returns it.
	Set(secret string) (ref string, err error)
	// Get resolves ref back to its secret value.
	Get(ref string) (string, error)
	// Delete removes ref. Deleting an unknown ref is not an error.
	Delete(ref string) error
}

// FileStore is the default SecretStore: a single 0600-permissioned JSON
// file under the registry root, mapping opaque UUID refs to secrets.
// This is explicitly a stand-in for an OS keychain, not a production
// credential store.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// OpenFileStore opens (creating if absent) the secret file under root.
func OpenFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, model.Context(model.ErrIo, "secretstore.open", err)
	}
	path := filepath.Join(root, "secrets.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
			return nil, model.Context(model.ErrIo, "secretstore.init", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *FileStore) save(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, append(data, '\n'), 0600)
}

func (f *FileStore) Set(secret string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.load()
	if err != nil {
		return "", model.Context(model.ErrIo, "secretstore.set", err)
	}
	ref := uuid.NewString()
	m[ref] = secret
	if err := f.save(m); err != nil {
		return "", model.Context(model.ErrIo, "secretstore.set", err)
	}
	return ref, nil
}

func (f *FileStore) Get(ref string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.load()
	if err != nil {
		return "", model.Context(model.ErrIo, "secretstore.get", err)
	}
	v, ok := m[ref]
	if !ok {
		return "", model.Context(model.ErrValidation, "secretstore.get", fmt.Errorf("no secret for ref %q", ref))
	}
	return v, nil
}

func (f *FileStore) Delete(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.load()
	if err != nil {
		return model.Context(model.ErrIo, "secretstore.delete", err)
	}
	delete(m, ref)
	return model.Context(model.ErrIo, "secretstore.delete", f.save(m))
}
