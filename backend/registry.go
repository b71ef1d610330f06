package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds backend descriptors and the connectors that open them.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	descriptors map[string]Descriptor
	connectors  map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		connectors:  make(map[string]Connector),
	}
}

// RegisterConnector registers the connector for a descriptor kind.
func (r *Registry) RegisterConnector(kind string, c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == "" || c == nil {
		return
	}
	r.connectors[kind] = c
}

// Connector returns the connector for kind.
func (r *Registry) Connector(kind string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[kind]
	return c, ok
}

// Register adds a descriptor to the registry.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBackend, d.Name)
	}
	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// static startup configuration.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get retrieves a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// All returns descriptors in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns descriptor names sorted for deterministic output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := append([]string(nil), r.order...)
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Connect opens a session for d using the connector registered for its
// kind. Every failure is reported as a *ConnectionError.
func (r *Registry) Connect(ctx context.Context, d Descriptor) (s Session, err error) {
	c, ok := r.Connector(d.EffectiveKind())
	if !ok {
		return nil, &ConnectionError{Backend: d.Name, Op: "spawn", Err: fmt.Errorf("%w: %s", ErrUnknownKind, d.EffectiveKind())}
	}

	defer func() {
		if p := recover(); p != nil {
			s = nil
			err = &ConnectionError{Backend: d.Name, Err: fmt.Errorf("connector panic: %v", p)}
		}
	}()

	s, err = c(ctx, d)
	if err != nil {
		if _, ok := err.(*ConnectionError); !ok {
			err = &ConnectionError{Backend: d.Name, Err: err}
		}
		return nil, err
	}
	if s == nil {
		return nil, &ConnectionError{Backend: d.Name, Err: fmt.Errorf("connector returned no session")}
	}
	return s, nil
}
