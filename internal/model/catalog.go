package model

import (
	"reflect"
	"strings"
	"sync"
)

// Catalog is the universe of types available to package scans. Model and
// check packages add their types from init(); scans filter by package path.
type Catalog struct {
	mu    sync.RWMutex
	types []reflect.Type
	seen  map[reflect.Type]bool
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{seen: make(map[reflect.Type]bool)}
}

// Default is the catalog used by Register
var Default = NewCatalog()

// Register adds types to the default catalog
func Register(types ...reflect.Type) {
	Default.Add(types...)
}

// Add appends types, ignoring duplicates. Pointer types are stored as their element.
func (c *Catalog) Add(types ...reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range types {
		t = Indirect(t)
		if t == nil || c.seen[t] {
			continue
		}
		c.seen[t] = true
		c.types = append(c.types, t)
	}
}

// Types returns the catalog entries whose package path starts with one of
// the prefixes, in registration order. No prefixes selects everything.
func (c *Catalog) Types(prefixes ...string) []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]reflect.Type, 0, len(c.types))
	for _, t := range c.types {
		if inScope(t.PkgPath(), prefixes) {
			result = append(result, t)
		}
	}
	return result
}

// Len returns the number of catalog entries
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

func inScope(pkg string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if pkg == p || strings.HasPrefix(pkg, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
