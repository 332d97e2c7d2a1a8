// Package secrets implements a local secrets store for sink credentials.
// Values are sealed with NaCl secretbox under a per-installation key and
// kept in a JSON file; the environment can supply values as well.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("secret not found")

// EnvPrefix prefixes environment variables that provide secrets.
const EnvPrefix = "CERTTAB_SECRET_"

const (
	keyFileName    = "secrets.key"
	valuesFileName = "secrets.json"
)

// Store holds sealed secrets. A Store created with NewMemoryStore never
// touches disk.
type Store struct {
	mu     sync.RWMutex
	dir    string
	key    [32]byte
	values map[string]string // key -> base64(nonce || sealed)

	// UseEnv enables the CERTTAB_SECRET_<KEY> fallback in Get.
	UseEnv bool
}

// NewStore opens the store in dir, creating the key and values files if
// needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	key, err := LoadOrGenerateKey(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, fmt.Errorf("load secrets key: %w", err)
	}
	s := &Store{dir: dir, key: key, values: map[string]string{}, UseEnv: true}

	data, err := os.ReadFile(filepath.Join(dir, valuesFileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &s.values); err != nil {
			return nil, fmt.Errorf("parse %s: %w", valuesFileName, err)
		}
	}
	return s, nil
}

// NewMemoryStore returns an in-memory store with a random key.
func NewMemoryStore() (*Store, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Store{key: key, values: map[string]string{}, UseEnv: true}, nil
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	r := strings.NewReplacer("-", "_", ".", "_", "/", "_")
	return EnvPrefix + strings.ToUpper(r.Replace(key))
}

// Dir returns the directory backing the store, or "" for memory stores.
func (s *Store) Dir() string {
	return s.dir
}
