package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// List returns all stored secret keys with the given prefix ("" for all),
// sorted. Environment-provided secrets are not listed.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Set seals value under key, overwriting any existing value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("empty secret key")
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	sealed := secretbox.Seal(nonce[:], value, &nonce, &s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = base64.StdEncoding.EncodeToString(sealed)
	return s.persist()
}

// Get returns the plaintext stored under key. When the key is not stored
// and UseEnv is set, the CERTTAB_SECRET_<KEY> variable is consulted.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	b64, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		if s.UseEnv {
			if v, ok := os.LookupEnv(EnvName(key)); ok {
				return []byte(v), nil
			}
		}
		return nil, ErrNotFound
	}

	sealed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(sealed) < 24 {
		return nil, errors.New("invalid secret data")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("decryption failed")
	}
	return plain, nil
}

// Delete removes the secret stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return ErrNotFound
	}
	delete(s.values, key)
	return s.persist()
}

// persist writes the values file atomically. Callers hold s.mu.
func (s *Store) persist() error {
	if s.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, valuesFileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, valuesFileName))
}
