package pipeconf

import (
	"fmt"
	"sync"

	"github.com/pipevine/pipevine/pkg/pipe"
)

// Registry maps stage names to stages of one value type. Safe for concurrent
// use.
type Registry[T any] struct {
	mu     sync.RWMutex
	stages map[string]pipe.Stage[T]
}

// NewRegistry returns an empty stage registry for type T.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{stages: make(map[string]pipe.Stage[T])}
}

// Register adds a stage under the given name, overwriting any existing
// registration.
func (r *Registry[T]) Register(name string, stage pipe.Stage[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stages == nil {
		r.stages = make(map[string]pipe.Stage[T])
	}
	r.stages[name] = stage
}

// Get returns the stage for name, or false when not registered.
func (r *Registry[T]) Get(name string) (pipe.Stage[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[name]
	return s, ok
}

// MustGet returns the stage for name, panicking when not registered.
func (r *Registry[T]) MustGet(name string) pipe.Stage[T] {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("pipeconf: stage %q not registered", name))
	}
	return s
}

// Names returns all registered stage names, unordered.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stages))
	for n := range r.stages {
		names = append(names, n)
	}
	return names
}
