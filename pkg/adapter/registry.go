package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unopened adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

// Engine describes a registered SQL engine.
type Engine struct {
	Name        string
	Description string
	New         Factory
}

var (
	enginesMu sync.RWMutex
	engines   = make(map[string]Engine)
)

// ErrTypeRequired is returned by NewAdapter when no engine is configured.
var ErrTypeRequired = errors.New("adapter type not specified")

// Register makes an engine available by name. Names are case-insensitive
// and a later registration replaces an earlier one.
func Register(e Engine) {
	if e.Name == "" || e.New == nil {
		panic("adapter: Register requires a name and a factory")
	}
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[strings.ToLower(e.Name)] = e
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, bool) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	e, ok := engines[strings.ToLower(name)]
	return e, ok
}

// Engines returns every registered engine ordered by name.
func Engines() []Engine {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	out := make([]Engine, 0, len(engines))
	for _, e := range engines {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Engine) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ListAdapters returns the registered engine names, sorted.
func ListAdapters() []string {
	list := Engines()
	names := make([]string, len(list))
	for i, e := range list {
		names[i] = e.Name
	}
	return names
}

// IsRegistered reports whether an engine is registered under name.
func IsRegistered(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// NewAdapter creates an unopened adapter for cfg.Type.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, ErrTypeRequired
	}
	e, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return e.New(logger), nil
}

// UnknownAdapterError is returned when the configured engine is not registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown engine %q (available: %s); check engine in leapdash.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
