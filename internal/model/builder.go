package model

import (
	"fmt"
	"reflect"
	"slices"
)

// Builder assembles a descriptor by hand. It is the way to declare generic
// bases whose members use type variables, e.g.
//
//	base := model.NewBuilder(reflect.TypeFor[Supervisor[any]]()).
//	    Params("T").
//	    Field("minions", model.SliceOf(model.Var("T")), "").
//	    MustBuild()
//	manager := model.NewBuilder(reflect.TypeFor[Manager]()).
//	    Tag("include").
//	    Extends(base, map[string]*model.TypeRef{"T": model.Of(reflect.TypeFor[Employee]())}).
//	    MustBuild()
type Builder struct {
	d   *Descriptor
	err error
}

// NewBuilder starts a descriptor for t
func NewBuilder(t reflect.Type) *Builder {
	b := &Builder{}
	if t == nil {
		b.err = fmt.Errorf("descriptor type is nil")
		b.d = &Descriptor{}
		return b
	}
	b.d = &Descriptor{Type: t, Name: t.Name(), Interface: t.Kind() == reflect.Interface}
	return b
}

// Tag adds type-level annotations in dict tag form
func (b *Builder) Tag(tag string) *Builder {
	as, err := ParseTag(tag)
	if err != nil {
		b.fail(err)
		return b
	}
	b.d.Annotations = append(b.d.Annotations, as...)
	return b
}

// Params declares type variables
func (b *Builder) Params(names ...string) *Builder {
	b.d.Params = append(b.d.Params, names...)
	return b
}

// Extends sets the parent and binds its type variables
func (b *Builder) Extends(parent *Descriptor, args map[string]*TypeRef) *Builder {
	if parent == nil {
		b.fail(fmt.Errorf("%s: nil parent", b.d.Name))
		return b
	}
	for name := range args {
		if !slices.Contains(parent.Params, name) {
			b.fail(fmt.Errorf("%s: parent %s has no type parameter %s", b.d.Name, parent.Name, name))
			return b
		}
	}
	b.d.Parent = parent
	b.d.ParentArgs = args
	return b
}

// Field declares an exported stored field
func (b *Builder) Field(name string, ref *TypeRef, tag string) *Builder {
	return b.member(name, StoredField, true, ref, tag)
}

// HiddenField declares an unexported stored field
func (b *Builder) HiddenField(name string, ref *TypeRef, tag string) *Builder {
	return b.member(name, StoredField, false, ref, tag)
}

// Accessor declares a getter/setter pair
func (b *Builder) Accessor(name string, ref *TypeRef, tag string) *Builder {
	return b.member(name, AccessorPair, true, ref, tag)
}

func (b *Builder) member(name string, kind MemberKind, exported bool, ref *TypeRef, tag string) *Builder {
	as, err := ParseTag(tag)
	if err != nil {
		b.fail(fmt.Errorf("%s.%s: %w", b.d.Name, name, err))
		return b
	}
	b.d.Members = append(b.d.Members, &Member{
		Name:        name,
		GoName:      name,
		Kind:        kind,
		Exported:    exported,
		Type:        ref,
		Annotations: as,
	})
	return b
}

// Build seals the descriptor
func (b *Builder) Build() (*Descriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.d.seal(); err != nil {
		return nil, err
	}
	return b.d, nil
}

// MustBuild is Build for descriptors declared in tests and package vars
func (b *Builder) MustBuild() *Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
