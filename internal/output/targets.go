package output

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/chtzvt/certtab/internal/table"
)

// Target is the interface for row stores a finished table can be loaded
// into (postgres, null).
type Target interface {
	Init(ctx context.Context, options map[string]interface{}, store *secrets.Store) error
	Load(ctx context.Context, t *table.Table) error
	Close() error
	Name() string
}

type TargetConfig struct {
	Name    string                 `json:"target"`
	Options map[string]interface{} `json:"options,omitempty"`
}

var (
	registryMu     sync.RWMutex
	targetRegistry = map[string]func() Target{}
)

// RegisterTarget registers a target constructor by name.
func RegisterTarget(name string, ctor func() Target) {
	registryMu.Lock()
	defer registryMu.Unlock()
	targetRegistry[name] = ctor
}

// NewTargetFromConfig instantiates and configures a target.
func NewTargetFromConfig(ctx context.Context, cfg TargetConfig, store *secrets.Store) (Target, error) {
	registryMu.RLock()
	ctor, ok := targetRegistry[cfg.Name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown target: %q", cfg.Name)
	}
	tgt := ctor()
	if err := tgt.Init(ctx, cfg.Options, store); err != nil {
		return nil, fmt.Errorf("init target: %w", err)
	}
	return tgt, nil
}

func RegisteredTargets() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(targetRegistry))
	for k := range targetRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
