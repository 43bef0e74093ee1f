package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownEngine is returned when no builder is registered for a kind.
var ErrUnknownEngine = errors.New("unknown engine kind")

// Engine is the capability every engine variant satisfies. Start and Stop
// return the line the variant emits; Type returns its stable label.
type Engine interface {
	Start() string
	Stop() string
	Type() string
}

// Builder constructs a fresh engine variant.
type Builder func() Engine

var (
	buildersMu sync.RWMutex
	builders   = map[string]Builder{}
)

// Register adds an engine builder under the provided kind. Registering a
// new variant never requires changes to the Car or the service layer.
func Register(kind string, b Builder) {
	if kind == "" || b == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[kind] = b
}

// Build constructs the engine variant registered under kind
func Build(kind string) (Engine, error) {
	buildersMu.RLock()
	b, ok := builders[kind]
	buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
	}
	return b(), nil
}

// Registered reports whether a builder exists for kind
func Registered(kind string) bool {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	_, ok := builders[kind]
	return ok
}

// Kinds returns the registered engine kinds in sorted order
func Kinds() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()

	kinds := make([]string, 0, len(builders))
	for kind := range builders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
