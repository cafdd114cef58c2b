package dictionary

import (
	"reflect"
	"sync"

	"github.com/conduit-lang/entitydict/internal/hooks"
	"github.com/conduit-lang/entitydict/internal/model"
)

// Initializer prepares a freshly loaded or created entity
type Initializer interface {
	Initialize(entity any) error
}

// InitializerFunc adapts a function to Initializer
type InitializerFunc func(entity any) error

// Initialize calls f
func (f InitializerFunc) Initialize(entity any) error {
	return f(entity)
}

// EntityBinding is the resolved metadata of one bound type. Everything but
// the initializer and hooks is fixed before the binding is published.
type EntityBinding struct {
	EntityType     reflect.Type
	ExposedName    string
	RootLevel      bool
	AccessStrategy AccessStrategy
	Identifier     *Identifier
	Shareable      bool

	// Lineage lists the bound type and its ancestors, nearest first
	Lineage []reflect.Type

	attributes    []*Attribute
	relationships []*Relationship
	members       map[string]candidate
	descriptor    *model.Descriptor

	mu          sync.RWMutex
	initializer Initializer
	hooks       []hooks.Registration
}

// EmptyBinding is returned for marker interfaces and persistence-mapped
// types that are not exposed. It is valid and has no members.
var EmptyBinding = &EntityBinding{}

// IsEmpty reports whether b is the empty binding
func (b *EntityBinding) IsEmpty() bool {
	return b == EmptyBinding
}

// Attributes returns attributes in declaration order
func (b *EntityBinding) Attributes() []*Attribute {
	return b.attributes
}

// Relationships returns relationships in declaration order
func (b *EntityBinding) Relationships() []*Relationship {
	return b.relationships
}

// Attribute finds an attribute by name
func (b *EntityBinding) Attribute(name string) (*Attribute, bool) {
	for _, a := range b.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Relationship finds a relationship by name
func (b *EntityBinding) Relationship(name string) (*Relationship, bool) {
	for _, r := range b.relationships {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// AttributeNames returns attribute names in declaration order
func (b *EntityBinding) AttributeNames() []string {
	names := make([]string, len(b.attributes))
	for i, a := range b.attributes {
		names[i] = a.Name
	}
	return names
}

// RelationshipNames returns relationship names in declaration order
func (b *EntityBinding) RelationshipNames() []string {
	names := make([]string, len(b.relationships))
	for i, r := range b.relationships {
		names[i] = r.Name
	}
	return names
}

// AllFields returns attribute names followed by relationship names
func (b *EntityBinding) AllFields() []string {
	return append(b.AttributeNames(), b.RelationshipNames()...)
}

// Annotations returns the type-level annotations of the bound type
func (b *EntityBinding) Annotations() model.Annotations {
	if b.descriptor == nil {
		return nil
	}
	return b.descriptor.Annotations
}

// Initializer returns the bound initializer, nil when none was registered
func (b *EntityBinding) Initializer() Initializer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initializer
}

// Hooks returns the registrations for one trigger in registration order
func (b *EntityBinding) Hooks(trigger hooks.Trigger) []hooks.Registration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []hooks.Registration
	for _, h := range b.hooks {
		if h.Trigger == trigger {
			result = append(result, h)
		}
	}
	return result
}

// HookCount returns the number of registered hooks across all triggers
func (b *EntityBinding) HookCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks)
}

func (b *EntityBinding) setInitializer(init Initializer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initializer = init
}

func (b *EntityBinding) addHook(reg hooks.Registration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, reg)
}

// member returns the descriptor entry for a classified member or the identifier
func (b *EntityBinding) member(name string) (candidate, bool) {
	c, ok := b.members[name]
	return c, ok
}
