package model

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoAccessor is returned when a member has no getter or setter closure
	ErrNoAccessor = errors.New("member has no accessor")

	// ErrNotAddressable is returned when an unexported field is read from a copy
	ErrNotAddressable = errors.New("value is not addressable")
)

// MemberKind tells whether a member is a stored field or an accessor pair
type MemberKind int

const (
	StoredField MemberKind = iota
	AccessorPair
)

// String returns the string representation of the member kind
func (k MemberKind) String() string {
	switch k {
	case StoredField:
		return "field"
	case AccessorPair:
		return "accessor"
	default:
		return "unknown"
	}
}

// Getter reads a member from the value of its declaring level
type Getter func(level reflect.Value) (reflect.Value, error)

// Setter writes a member on the value of its declaring level
type Setter func(level reflect.Value, value reflect.Value) error

// Member is one entry of a descriptor table
type Member struct {
	Name        string
	GoName      string
	Kind        MemberKind
	Exported    bool
	Type        *TypeRef
	Annotations Annotations

	Get Getter
	Set Setter
}

// Descriptor is the registration-time table for one type. Members hold only
// what is declared at this level; inherited members live on Parent.
type Descriptor struct {
	Type        reflect.Type
	Name        string
	Annotations Annotations
	Params      []string
	Parent      *Descriptor
	ParentArgs  map[string]*TypeRef
	Members     []*Member
	Interface   bool

	// embed moves from a value of this level to the value of Parent
	embed   func(reflect.Value) (reflect.Value, error)
	lineage []Level
}

// Level is one entry of a flattened ancestor chain
type Level struct {
	Descriptor *Descriptor
	Env        Env
	Depth      int
}

// Lineage returns the flattened chain, the described type first
func (d *Descriptor) Lineage() []Level {
	return d.lineage
}

// Types returns the lineage as plain types
func (d *Descriptor) Types() []reflect.Type {
	types := make([]reflect.Type, len(d.lineage))
	for i, l := range d.lineage {
		types[i] = l.Descriptor.Type
	}
	return types
}

// Member returns a member declared at this level
func (d *Descriptor) Member(name string) (*Member, bool) {
	for _, m := range d.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// IsMappedInterface reports whether the descriptor is a marker interface
func (d *Descriptor) IsMappedInterface() bool {
	return d.Interface && d.Annotations.Has(MappedInterface)
}

// Navigate walks from a value of the described type to the value of the
// ancestor at the given depth.
func (d *Descriptor) Navigate(v reflect.Value, depth int) (reflect.Value, error) {
	if depth >= len(d.lineage) {
		return reflect.Value{}, fmt.Errorf("depth %d outside lineage of %s", depth, d.Name)
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s", v.Type())
		}
		v = v.Elem()
	}
	for i := 0; i < depth; i++ {
		level := d.lineage[i].Descriptor
		if level.embed == nil {
			return reflect.Value{}, fmt.Errorf("%w: %s does not embed %s", ErrNoAccessor, level.Name, level.Parent.Name)
		}
		next, err := level.embed(v)
		if err != nil {
			return reflect.Value{}, err
		}
		v = next
	}
	return v, nil
}

// seal computes the flattened lineage and the type variable environment of
// every ancestor. Must run once, after Parent and ParentArgs are final.
func (d *Descriptor) seal() error {
	var levels []Level
	env := Env{}
	seen := make(map[*Descriptor]bool)
	for cur := d; cur != nil; cur = cur.Parent {
		if seen[cur] {
			return fmt.Errorf("%s: cyclic ancestry", d.Name)
		}
		seen[cur] = true
		levels = append(levels, Level{Descriptor: cur, Env: env, Depth: len(levels)})

		if cur.Parent == nil {
			break
		}
		next := Env{}
		for _, p := range cur.Parent.Params {
			ref, ok := cur.ParentArgs[p]
			if !ok {
				continue
			}
			// Unbound variables stay absent and surface when a member uses them.
			if t, err := ref.Resolve(env); err == nil {
				next[p] = t
			}
		}
		env = next
	}
	d.lineage = levels
	return nil
}

// Indirect strips pointer indirections
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
