package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/secrets"
)

func outResult(v any, printer func(any)) {
	if outputJSON {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
	} else {
		printer(v)
	}
}

func valOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func openSecrets(c *CerttabConfig) (*secrets.Store, error) {
	store, err := secrets.NewStore(c.Secrets.Dir)
	if err != nil {
		return nil, fmt.Errorf("open secrets store %s: %w", c.Secrets.Dir, err)
	}
	store.UseEnv = c.Secrets.UseEnv
	return store, nil
}

// baseNameFor derives the table base name from an input file name:
// /data/ct-2024-01.csv.gz -> ct-2024-01.
func baseNameFor(path string) string {
	name := filepath.Base(path)
	if compression.FromPath(name) != "none" {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func parseOptions(str string) (map[string]interface{}, error) {
	if str == "" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(str), &m); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return m, nil
}
