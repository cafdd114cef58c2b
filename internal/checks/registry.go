// Package checks maps human-readable permission check aliases to the types
// implementing them.
package checks

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/conduit-lang/entitydict/internal/model"
)

var (
	// ErrDuplicateCheckAlias is returned when an alias already maps to a different type
	ErrDuplicateCheckAlias = errors.New("duplicate check alias")

	// ErrNoDeclaration is returned by Declared for types without a check declaration
	ErrNoDeclaration = errors.New("type does not declare a security check")
)

// Declaration marks a type as a security check when embedded with a
// security_check annotation:
//
//	type IsAdmin struct {
//	    checks.Declaration `dict:"security_check,alias:'User is Admin'"`
//	}
type Declaration struct{}

var declarationType = reflect.TypeFor[Declaration]()

// Registry is the alias to check type mapping
type Registry struct {
	mu      sync.RWMutex
	byAlias map[string]reflect.Type
	byType  map[reflect.Type]string
}

// NewRegistry creates a registry holding the prefab checks
func NewRegistry() *Registry {
	r := &Registry{
		byAlias: make(map[string]reflect.Type),
		byType:  make(map[reflect.Type]string),
	}
	for _, t := range prefabs {
		alias, err := Declared(t)
		if err != nil {
			panic(err)
		}
		r.put(alias, t)
	}
	return r
}

// Register maps alias to t. Registering the same pair twice is a no-op.
func (r *Registry) Register(alias string, t reflect.Type) error {
	t = model.Indirect(t)
	if alias == "" || t == nil {
		return fmt.Errorf("check alias and type are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byAlias[alias]; ok && existing != t {
		return fmt.Errorf("%w: %q maps to %s, cannot map to %s", ErrDuplicateCheckAlias, alias, existing, t)
	}
	r.put(alias, t)
	return nil
}

// ForceRegister maps alias to t, replacing any previous mapping
func (r *Registry) ForceRegister(alias string, t reflect.Type) {
	t = model.Indirect(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.byAlias[alias]; ok && previous != t && r.byType[previous] == alias {
		delete(r.byType, previous)
	}
	r.put(alias, t)
}

// put must be called with the lock held
func (r *Registry) put(alias string, t reflect.Type) {
	r.byAlias[alias] = t
	r.byType[t] = alias
}

// Resolve returns the check type registered under alias
func (r *Registry) Resolve(alias string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byAlias[alias]
	return t, ok
}

// ResolveAlias returns the alias most recently registered for t
func (r *Registry) ResolveAlias(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alias, ok := r.byType[model.Indirect(t)]
	return alias, ok
}

// Aliases returns all registered aliases in sorted order
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, 0, len(r.byAlias))
	for alias := range r.byAlias {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	return aliases
}

// Len returns the number of registered aliases
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAlias)
}

// Scan registers every type declaring a security check. Types without a
// declaration are skipped; conflicts are collected and returned together.
func (r *Registry) Scan(types []reflect.Type) error {
	var errs []error
	for _, t := range types {
		alias, err := Declared(t)
		if errors.Is(err, ErrNoDeclaration) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.Register(alias, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Declared reads the alias from an embedded Declaration
func Declared(t reflect.Type) (string, error) {
	t = model.Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return "", ErrNoDeclaration
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || f.Type != declarationType {
			continue
		}
		as, err := model.ParseTag(f.Tag.Get(model.TagKey))
		if err != nil {
			return "", fmt.Errorf("%s: %w", t, err)
		}
		decl, ok := as.Get(model.SecurityCheck)
		if !ok {
			return "", ErrNoDeclaration
		}
		alias, ok := decl.Arg(model.ArgAlias)
		if !ok || alias == "" {
			return "", fmt.Errorf("%s: security check without alias", t)
		}
		return alias, nil
	}
	return "", ErrNoDeclaration
}
