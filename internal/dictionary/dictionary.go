// Package dictionary binds annotated Go types into entity metadata and
// serves it to persistence, permission and serialization layers.
package dictionary

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/checks"
	"github.com/conduit-lang/entitydict/internal/hooks"
	"github.com/conduit-lang/entitydict/internal/model"
	ustrings "github.com/conduit-lang/entitydict/internal/util/strings"
)

// Config holds the collaborators of a dictionary. Zero values are replaced
// with defaults.
type Config struct {
	Logger  *zap.Logger
	Scanner *model.Scanner
	Checks  *checks.Registry

	// Catalog is the universe of package scans. Nil means an empty catalog;
	// pass model.Default to scan types registered from init().
	Catalog *model.Catalog

	// CheckScope limits ScanForChecks to these package path prefixes
	CheckScope []string
}

// Dictionary is the registry of entity bindings. Bindings are built before
// they are published and never change afterwards, except for their
// initializer and hooks which carry their own lock.
type Dictionary struct {
	logger     *zap.Logger
	scanner    *model.Scanner
	catalog    *model.Catalog
	checks     *checks.Registry
	checkScope []string

	mu         sync.RWMutex
	bindings   map[reflect.Type]*EntityBinding
	byName     map[string]*EntityBinding
	order      []reflect.Type
	pending    map[reflect.Type][]func(*EntityBinding)
	persistent map[reflect.Type]bool
}

// New creates an empty dictionary
func New(cfg Config) *Dictionary {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Scanner == nil {
		cfg.Scanner = model.NewScanner()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = model.NewCatalog()
	}
	if cfg.Checks == nil {
		cfg.Checks = checks.NewRegistry()
	}
	return &Dictionary{
		logger:     cfg.Logger,
		scanner:    cfg.Scanner,
		catalog:    cfg.Catalog,
		checks:     cfg.Checks,
		checkScope: cfg.CheckScope,
		bindings:   make(map[reflect.Type]*EntityBinding),
		byName:     make(map[string]*EntityBinding),
		pending:    make(map[reflect.Type][]func(*EntityBinding)),
		persistent: make(map[reflect.Type]bool),
	}
}

// Scanner returns the descriptor scanner shared with data stores
func (d *Dictionary) Scanner() *model.Scanner {
	return d.scanner
}

// Catalog returns the type catalog used for package scans
func (d *Dictionary) Catalog() *model.Catalog {
	return d.catalog
}

// Bind resolves and publishes the binding of t. Types whose nearest
// inclusion marker is an exclusion, or that carry none, are skipped without
// error. Binding a bound type again is a no-op.
func (d *Dictionary) Bind(t reflect.Type) error {
	t = model.Indirect(t)
	if t == nil {
		return fmt.Errorf("cannot bind nil type")
	}

	d.mu.RLock()
	_, bound := d.bindings[t]
	d.mu.RUnlock()
	if bound {
		return nil
	}

	desc, err := d.scanner.Describe(t)
	if err != nil {
		return &BindError{Type: t, Err: err}
	}
	if !included(desc) {
		d.logger.Debug("skipping type without inclusion", zap.Stringer("type", t))
		return nil
	}

	binding, err := d.newBinding(desc)
	if err != nil {
		return &BindError{Type: t, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// another goroutine may have won the race; its binding is equivalent
	if _, bound := d.bindings[t]; bound {
		return nil
	}
	if other, taken := d.byName[binding.ExposedName]; taken {
		return &BindError{Type: t, Err: fmt.Errorf("%w: %q is %s", ErrDuplicateExposedName, binding.ExposedName, other.EntityType)}
	}

	d.bindings[t] = binding
	d.byName[binding.ExposedName] = binding
	d.order = append(d.order, t)

	queued := d.pending[t]
	delete(d.pending, t)
	for _, apply := range queued {
		apply(binding)
	}

	d.logger.Debug("bound type",
		zap.Stringer("type", t),
		zap.String("name", binding.ExposedName),
		zap.Stringer("access", binding.AccessStrategy),
		zap.Int("attributes", len(binding.attributes)),
		zap.Int("relationships", len(binding.relationships)),
		zap.Int("pending_applied", len(queued)),
	)
	return nil
}

// BindAll binds every type and returns the failures joined. A failing type
// does not stop the others.
func (d *Dictionary) BindAll(types ...reflect.Type) error {
	var errs []error
	for _, t := range types {
		if err := d.Bind(t); err != nil {
			d.logger.Warn("bind failed", zap.Stringer("type", t), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BindIfUnbound binds t on first reference and returns its binding
func (d *Dictionary) BindIfUnbound(t reflect.Type) (*EntityBinding, error) {
	t = model.Indirect(t)
	d.mu.RLock()
	b, ok := d.bindings[t]
	d.mu.RUnlock()
	if ok {
		return b, nil
	}
	if err := d.Bind(t); err != nil {
		return nil, err
	}
	return d.GetBinding(t)
}

func (d *Dictionary) newBinding(desc *model.Descriptor) (*EntityBinding, error) {
	strategy := DetectAccessStrategy(desc)
	cls, err := Classify(desc, strategy, d)
	if err != nil {
		return nil, err
	}

	name, _, _ := strings.Cut(desc.Name, "[")
	name = ustrings.ToLowerCamel(name)
	if own, ok := desc.Annotations.Get(model.Include); ok {
		if alias, ok := own.Arg(model.ArgType); ok && alias != "" {
			name = alias
		}
	}
	include, _ := inheritedAnnotation(desc.Lineage(), model.Include)
	_, shareable := inheritedAnnotation(desc.Lineage(), model.Shareable)

	return &EntityBinding{
		EntityType:     desc.Type,
		ExposedName:    name,
		RootLevel:      include.Has(model.ArgRootLevel),
		AccessStrategy: strategy,
		Identifier:     cls.Identifier,
		Shareable:      shareable,
		Lineage:        desc.Types(),
		attributes:     cls.Attributes,
		relationships:  cls.Relationships,
		members:        cls.members,
		descriptor:     desc,
	}, nil
}

// Bindable reports whether t is bound or would be bound: an included struct
// or a marker interface.
func (d *Dictionary) Bindable(t reflect.Type) bool {
	t = model.Indirect(t)
	if t == nil || (t.Kind() != reflect.Struct && t.Kind() != reflect.Interface) {
		return false
	}

	d.mu.RLock()
	_, bound := d.bindings[t]
	d.mu.RUnlock()
	if bound {
		return true
	}

	desc, err := d.scanner.Describe(t)
	if err != nil {
		return false
	}
	return desc.IsMappedInterface() || included(desc)
}

// Excluded reports whether the nearest inclusion marker of t is an exclusion
func (d *Dictionary) Excluded(t reflect.Type) bool {
	t = model.Indirect(t)
	if t == nil || (t.Kind() != reflect.Struct && t.Kind() != reflect.Interface) {
		return false
	}
	desc, err := d.scanner.Describe(t)
	if err != nil {
		return false
	}
	a, _, ok := ResolveAnnotation(desc.Lineage(), inclusionPriority...)
	return ok && a.Name == model.Exclude
}

// Shareable reports whether t or an ancestor carries the shareable marker
func (d *Dictionary) Shareable(t reflect.Type) bool {
	desc, err := d.scanner.Describe(t)
	if err != nil {
		return false
	}
	_, ok := inheritedAnnotation(desc.Lineage(), model.Shareable)
	return ok
}

// MarkPersistent records that a data store maps t
func (d *Dictionary) MarkPersistent(t reflect.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persistent[model.Indirect(t)] = true
}

// whenBound applies fn to the binding of t now, or queues it until t is bound
func (d *Dictionary) whenBound(t reflect.Type, fn func(*EntityBinding)) {
	t = model.Indirect(t)

	d.mu.Lock()
	defer d.mu.Unlock()

	if b, ok := d.bindings[t]; ok {
		fn(b)
		return
	}
	d.pending[t] = append(d.pending[t], fn)
}

// BindInitializer sets the initializer of t. It never binds t itself.
func (d *Dictionary) BindInitializer(t reflect.Type, init Initializer) {
	d.whenBound(t, func(b *EntityBinding) {
		b.setInitializer(init)
	})
}

// BindLifecycleHook registers a hook for one field of t, or for the whole
// type when field is empty
func (d *Dictionary) BindLifecycleHook(t reflect.Type, trigger hooks.Trigger, field string, hook hooks.Hook) {
	d.whenBound(t, func(b *EntityBinding) {
		b.addHook(hooks.Registration{Trigger: trigger, Field: field, Hook: hook})
	})
}

// BindTypeHook registers a type-level hook. With allowMultiple the hook runs
// once per changed field instead of once per event.
func (d *Dictionary) BindTypeHook(t reflect.Type, trigger hooks.Trigger, hook hooks.Hook, allowMultiple bool) {
	d.whenBound(t, func(b *EntityBinding) {
		b.addHook(hooks.Registration{Trigger: trigger, Hook: hook, AllowMultiple: allowMultiple})
	})
}

// BindAsyncHook registers a type-level hook that the executor queues instead
// of running inline. Only post-commit triggers honour the flag.
func (d *Dictionary) BindAsyncHook(t reflect.Type, trigger hooks.Trigger, hook hooks.Hook) {
	d.whenBound(t, func(b *EntityBinding) {
		b.addHook(hooks.Registration{Trigger: trigger, Hook: hook, Async: true})
	})
}

// PendingCount returns the number of callbacks queued for an unbound type
func (d *Dictionary) PendingCount(t reflect.Type) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pending[model.Indirect(t)])
}

// GetBinding resolves the binding serving t: its own, the empty binding for
// marker interfaces, the nearest bound ancestor of an exposed type, or the
// binding of its persistence ancestor. Persistence-mapped types that are not
// bound get the empty binding.
func (d *Dictionary) GetBinding(t reflect.Type) (*EntityBinding, error) {
	t = model.Indirect(t)
	if t == nil {
		return nil, unboundType(t)
	}

	d.mu.RLock()
	b, ok := d.bindings[t]
	d.mu.RUnlock()
	if ok {
		return b, nil
	}

	desc, err := d.scanner.Describe(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnboundType, err)
	}
	if desc.IsMappedInterface() {
		return EmptyBinding, nil
	}
	if included(desc) {
		if b := d.nearestBound(desc); b != nil {
			return b, nil
		}
	}
	if level, ok := d.persistenceLevel(t); ok {
		d.mu.RLock()
		b, bound := d.bindings[level.Descriptor.Type]
		d.mu.RUnlock()
		if bound {
			return b, nil
		}
		return EmptyBinding, nil
	}
	return nil, unboundType(t)
}

func (d *Dictionary) nearestBound(desc *model.Descriptor) *EntityBinding {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, level := range desc.Lineage()[1:] {
		if b, ok := d.bindings[level.Descriptor.Type]; ok {
			return b
		}
	}
	return nil
}

// lookup is GetBinding for projections
func (d *Dictionary) lookup(t reflect.Type) (*EntityBinding, error) {
	b, err := d.GetBinding(t)
	if err != nil {
		return nil, unknownType(t)
	}
	return b, nil
}

// GetAttributes returns attribute names of t
func (d *Dictionary) GetAttributes(t reflect.Type) ([]string, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	return b.AttributeNames(), nil
}

// GetRelationships returns relationship names of t
func (d *Dictionary) GetRelationships(t reflect.Type) ([]string, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	return b.RelationshipNames(), nil
}

// GetAllFields returns attribute and relationship names of t
func (d *Dictionary) GetAllFields(t reflect.Type) ([]string, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	return b.AllFields(), nil
}

// GetType returns the declared type of a member. The name "id" also
// resolves to the identifier. Unknown members return nil without error.
func (d *Dictionary) GetType(t reflect.Type, member string) (reflect.Type, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	if id := b.Identifier; id != nil && id.Name == member {
		return id.Type, nil
	}
	if a, ok := b.Attribute(member); ok {
		return a.Type, nil
	}
	if r, ok := b.Relationship(member); ok {
		return r.Type, nil
	}
	if id := b.Identifier; id != nil && member == "id" {
		return id.Type, nil
	}
	return nil, nil
}

// GetParameterizedType returns the element type of a member: the target of
// a relationship, or the element of a slice or array attribute.
func (d *Dictionary) GetParameterizedType(t reflect.Type, member string) (reflect.Type, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	if r, ok := b.Relationship(member); ok {
		return r.Target, nil
	}
	if a, ok := b.Attribute(member); ok {
		elem, _ := elementOf(a.Type)
		return elem, nil
	}
	if id := b.Identifier; id != nil && (id.Name == member || member == "id") {
		return id.Type, nil
	}
	return nil, nil
}

// GetIdentifier returns the identifier of t, nil when t has none
func (d *Dictionary) GetIdentifier(t reflect.Type) (*Identifier, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	return b.Identifier, nil
}

// GetIDType returns the declared identifier type of t, nil when t has none
func (d *Dictionary) GetIDType(t reflect.Type) (reflect.Type, error) {
	id, err := d.GetIdentifier(t)
	if err != nil || id == nil {
		return nil, err
	}
	return id.Type, nil
}

// GetIDAnnotations returns the annotations on the identifier member in
// declaration order, empty when t has no identifier
func (d *Dictionary) GetIDAnnotations(t reflect.Type) (model.Annotations, error) {
	id, err := d.GetIdentifier(t)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return model.Annotations{}, nil
	}
	return id.Annotations, nil
}

// GetRelationInverse returns the name of the relationship on the target
// that points back at rel, empty when there is none. An explicit mapped_by
// wins; otherwise a target relationship mapped by rel, then the first target
// relationship whose target is t or one of its ancestors.
func (d *Dictionary) GetRelationInverse(t reflect.Type, rel string) (string, error) {
	b, err := d.lookup(t)
	if err != nil {
		return "", err
	}
	r, ok := b.Relationship(rel)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrNotRelationship, b.ExposedName, rel)
	}
	if r.MappedBy != "" {
		return r.MappedBy, nil
	}

	target, err := d.GetBinding(r.Target)
	if err != nil || target.IsEmpty() {
		return "", nil
	}

	pointsBack := func(candidate *Relationship) bool {
		return candidate.Target == b.EntityType || slices.Contains(b.Lineage, candidate.Target)
	}
	for _, candidate := range target.relationships {
		if candidate.MappedBy == rel && pointsBack(candidate) {
			return candidate.Name, nil
		}
	}
	for _, candidate := range target.relationships {
		if target == b && candidate.Name == rel {
			continue
		}
		if pointsBack(candidate) {
			return candidate.Name, nil
		}
	}
	return "", nil
}

// CascadeDeletes reports whether deleting t deletes the targets of rel
func (d *Dictionary) CascadeDeletes(t reflect.Type, rel string) bool {
	b, err := d.lookup(t)
	if err != nil {
		return false
	}
	r, ok := b.Relationship(rel)
	return ok && r.CascadeDelete
}

// GetRelationshipType returns the cardinality of rel
func (d *Dictionary) GetRelationshipType(t reflect.Type, rel string) (Cardinality, error) {
	b, err := d.lookup(t)
	if err != nil {
		return 0, err
	}
	r, ok := b.Relationship(rel)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrNotRelationship, b.ExposedName, rel)
	}
	return r.Cardinality, nil
}

// IsShareable reports whether t is bound and shareable
func (d *Dictionary) IsShareable(t reflect.Type) bool {
	b, err := d.GetBinding(t)
	return err == nil && b.Shareable
}

// IsRelation reports whether member is a relationship of t
func (d *Dictionary) IsRelation(t reflect.Type, member string) bool {
	b, err := d.GetBinding(t)
	if err != nil {
		return false
	}
	_, ok := b.Relationship(member)
	return ok
}

// IsAttribute reports whether member is an attribute of t
func (d *Dictionary) IsAttribute(t reflect.Type, member string) bool {
	b, err := d.GetBinding(t)
	if err != nil {
		return false
	}
	_, ok := b.Attribute(member)
	return ok
}

// GetAttributeOrRelationAnnotation returns the named annotation declared on
// member, falling back to the nearest type-level declaration in t's lineage
func (d *Dictionary) GetAttributeOrRelationAnnotation(t reflect.Type, name, member string) (model.Annotation, bool, error) {
	b, err := d.lookup(t)
	if err != nil {
		return model.Annotation{}, false, err
	}
	if c, ok := b.member(member); ok {
		if a, ok := c.member.Annotations.Get(name); ok {
			return a, true, nil
		}
	}
	if b.descriptor == nil {
		return model.Annotation{}, false, nil
	}
	a, ok := inheritedAnnotation(b.descriptor.Lineage(), name)
	return a, ok, nil
}

// GetExposedName returns the external name of t
func (d *Dictionary) GetExposedName(t reflect.Type) (string, error) {
	b, err := d.lookup(t)
	if err != nil {
		return "", err
	}
	return b.ExposedName, nil
}

// GetTypeByExposedName returns the bound type with the given external name
func (d *Dictionary) GetTypeByExposedName(name string) (reflect.Type, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return b.EntityType, true
}

// IsRootLevel reports whether t may be addressed at the top level
func (d *Dictionary) IsRootLevel(t reflect.Type) bool {
	b, err := d.GetBinding(t)
	return err == nil && b.RootLevel
}

// GetAccessStrategy returns the strategy fixed when t was bound
func (d *Dictionary) GetAccessStrategy(t reflect.Type) (AccessStrategy, error) {
	b, err := d.lookup(t)
	if err != nil {
		return FieldAccess, err
	}
	return b.AccessStrategy, nil
}

// Bindings returns all bindings in bind order
func (d *Dictionary) Bindings() []*EntityBinding {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*EntityBinding, len(d.order))
	for i, t := range d.order {
		result[i] = d.bindings[t]
	}
	return result
}

// Hooks returns the registrations of t for one trigger
func (d *Dictionary) Hooks(t reflect.Type, trigger hooks.Trigger) ([]hooks.Registration, error) {
	b, err := d.lookup(t)
	if err != nil {
		return nil, err
	}
	return b.Hooks(trigger), nil
}

// GetTriggers returns the hooks of t for one trigger and field. An empty
// field selects type-level hooks.
func (d *Dictionary) GetTriggers(t reflect.Type, trigger hooks.Trigger, field string) ([]hooks.Hook, error) {
	regs, err := d.Hooks(t, trigger)
	if err != nil {
		return nil, err
	}
	var result []hooks.Hook
	for _, reg := range regs {
		if reg.Field == field {
			result = append(result, reg.Hook)
		}
	}
	return result, nil
}

// InitializeEntity runs the initializer bound to the type of entity, if any
func (d *Dictionary) InitializeEntity(entity any) error {
	if entity == nil {
		return fmt.Errorf("cannot initialize nil entity")
	}
	b, err := d.GetBinding(reflect.TypeOf(entity))
	if err != nil {
		return err
	}
	if init := b.Initializer(); init != nil {
		return init.Initialize(entity)
	}
	return nil
}

// Checks returns the check registry owned by the dictionary
func (d *Dictionary) Checks() *checks.Registry {
	return d.checks
}

// ScanForChecks registers every check declared in the configured scope
func (d *Dictionary) ScanForChecks() error {
	types := d.catalog.Types(d.checkScope...)
	if err := d.checks.Scan(types); err != nil {
		return fmt.Errorf("scan for checks: %w", err)
	}
	d.logger.Debug("scanned for checks", zap.Int("candidates", len(types)), zap.Int("aliases", d.checks.Len()))
	return nil
}

// GetCheckAlias returns the alias under which a check type is registered
func (d *Dictionary) GetCheckAlias(t reflect.Type) (string, bool) {
	return d.checks.ResolveAlias(t)
}
