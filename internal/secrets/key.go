package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// GenerateKey returns a new random secretbox key.
func GenerateKey() ([32]byte, error) {
	var key [32]byte
	_, err := rand.Read(key[:])
	return key, err
}

// LoadOrGenerateKey loads a base64 key from path, or generates and persists
// a new one if not present.
func LoadOrGenerateKey(path string) ([32]byte, error) {
	var key [32]byte
	data, err := os.ReadFile(path)
	if err == nil {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return key, err
		}
		if len(raw) != len(key) {
			return key, errors.New("invalid key length")
		}
		copy(key[:], raw)
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return key, err
	}

	key, err = GenerateKey()
	if err != nil {
		return key, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return key, err
	}
	encoded := base64.StdEncoding.EncodeToString(key[:]) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return key, err
	}
	return key, nil
}
