package value

import (
	"fmt"
	"sort"
)

// Environment maps identifiers directly to values. It is an alternative to
// positional pool lookup; keys are unique.
type Environment struct {
	values map[Id]Value
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[Id]Value)}
}

// EnvironmentFromPool seeds an environment with every item of p.
func EnvironmentFromPool(p *Pool[Value]) (*Environment, error) {
	env := NewEnvironment()
	for id, v := range p.All() {
		if err := env.Define(id, v); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Define binds id to v. Binding an id twice fails with ErrDuplicateID.
func (e *Environment) Define(id Id, v Value) error {
	if err := Validate(v); err != nil {
		return &ItemError{ID: id, Err: err}
	}
	if _, ok := e.values[id]; ok {
		return fmt.Errorf("define %s: %w", id, ErrDuplicateID)
	}
	e.values[id] = v
	return nil
}

// Lookup returns the value bound to id.
func (e *Environment) Lookup(id Id) (Value, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.values[id]
	return v, ok
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.values)
}

// IDs returns the bound identifiers ordered by pool, then index.
func (e *Environment) IDs() []Id {
	if e == nil {
		return nil
	}
	ids := make([]Id, 0, len(e.values))
	for id := range e.values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].PoolID != ids[j].PoolID {
			return ids[i].PoolID < ids[j].PoolID
		}
		return ids[i].Index < ids[j].Index
	})
	return ids
}
