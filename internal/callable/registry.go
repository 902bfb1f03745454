package callable

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps "module:attr" names to Go values. Supported values are
// Func, func(string) string, Thunk, func() string and plain strings.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// DefaultRegistry is used by loaders created without an explicit registry.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]any)}
}

// Register adds value under name, which must have the form "module:attr".
// Registering the same name twice replaces the earlier value.
func (r *Registry) Register(name string, value any) error {
	module, attr, ok := splitReference(name)
	if !ok {
		return fmt.Errorf("%w: name %q must have the form module:attr", ErrReference, name)
	}
	if !isSupported(value) {
		return fmt.Errorf("%w: %s of type %s is not callable", ErrReference, name, typeName(value))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	attrs, ok := r.modules[module]
	if !ok {
		attrs = make(map[string]any)
		r.modules[module] = attrs
	}
	attrs[attr] = value
	return nil
}

// MustRegister is like Register but panics on error. It is meant for init
// functions.
func (r *Registry) MustRegister(name string, value any) {
	if err := r.Register(name, value); err != nil {
		panic(err)
	}
}

// lookup returns the value for module:attr. known is false when nothing is
// registered under module at all.
func (r *Registry) lookup(module, attr string) (value any, known, found bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attrs, known := r.modules[module]
	if !known {
		return nil, false, false
	}
	value, found = attrs[attr]
	return value, true, found
}

// Register adds value to DefaultRegistry.
func Register(name string, value any) error {
	return DefaultRegistry.Register(name, value)
}

// MustRegister adds value to DefaultRegistry, panicking on error.
func MustRegister(name string, value any) {
	DefaultRegistry.MustRegister(name, value)
}

func splitReference(s string) (module, attr string, ok bool) {
	module, attr, ok = strings.Cut(s, ":")
	if !ok || module == "" || attr == "" || strings.Contains(attr, ":") {
		return "", "", false
	}
	return module, attr, true
}
