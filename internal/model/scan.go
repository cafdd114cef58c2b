package model

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unsafe"

	ustrings "github.com/conduit-lang/entitydict/internal/util/strings"
)

// Meta carries type-level annotations when embedded:
//
//	type Book struct {
//	    model.Meta `dict:"include,type:book;entity"`
//	    ID uuid.UUID `dict:"id"`
//	}
//
// Any embedded struct without fields works the same way.
type Meta struct{}

// Mapped is embedded by interfaces that should resolve to an empty binding
type Mapped interface {
	DictMappedInterface()
}

// AccessorTagger supplies annotations for accessor methods, keyed by the
// property name (the getter name without a Get prefix).
type AccessorTagger interface {
	AccessorTags() map[string]string
}

var (
	mappedType = reflect.TypeFor[Mapped]()
	taggerType = reflect.TypeFor[AccessorTagger]()
)

// Scanner builds descriptors from Go types once and caches them
type Scanner struct {
	mu    sync.Mutex
	cache map[reflect.Type]*Descriptor
}

// NewScanner creates a new scanner
func NewScanner() *Scanner {
	return &Scanner{cache: make(map[reflect.Type]*Descriptor)}
}

// Register installs a hand-built descriptor, replacing reflection for its type
func (s *Scanner) Register(d *Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[d.Type] = d
}

// Describe returns the descriptor of t, scanning it on first use.
// Pointer types describe their element type.
func (s *Scanner) Describe(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot describe nil type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.describe(Indirect(t), make(map[reflect.Type]bool))
}

func (s *Scanner) describe(t reflect.Type, visiting map[reflect.Type]bool) (*Descriptor, error) {
	if d, ok := s.cache[t]; ok {
		return d, nil
	}
	if visiting[t] {
		return nil, fmt.Errorf("%s embeds itself", t)
	}
	visiting[t] = true

	var (
		d   *Descriptor
		err error
	)
	switch t.Kind() {
	case reflect.Interface:
		d = &Descriptor{Type: t, Name: t.Name(), Interface: true}
		if t.Implements(mappedType) {
			d.Annotations = Annotations{{Name: MappedInterface}}
		}
	case reflect.Struct:
		d, err = s.describeStruct(t, visiting)
		if err != nil {
			return nil, err
		}
	default:
		d = &Descriptor{Type: t, Name: t.Name()}
	}

	if err := d.seal(); err != nil {
		return nil, err
	}
	s.cache[t] = d
	return d, nil
}

func (s *Scanner) describeStruct(t reflect.Type, visiting map[reflect.Type]bool) (*Descriptor, error) {
	d := &Descriptor{Type: t, Name: t.Name()}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}

		if f.Anonymous && isMarkerCarrier(f.Type) {
			as, err := ParseTag(f.Tag.Get(TagKey))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t, err)
			}
			d.Annotations = append(d.Annotations, as...)
			continue
		}

		if f.Anonymous && d.Parent == nil && Indirect(f.Type).Kind() == reflect.Struct {
			parent, err := s.describe(Indirect(f.Type), visiting)
			if err != nil {
				return nil, err
			}
			d.Parent = parent
			d.embed = embedFunc(i, f.Type)
			continue
		}

		m, err := fieldMember(f, i)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, f.Name, err)
		}
		d.Members = append(d.Members, m)
	}

	accessors, err := accessorMembers(t, d.Parent)
	if err != nil {
		return nil, err
	}
	d.Members = append(d.Members, accessors...)
	return d, nil
}

// isMarkerCarrier reports whether an embedded type only carries annotations
func isMarkerCarrier(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}

func embedFunc(index int, ft reflect.Type) func(reflect.Value) (reflect.Value, error) {
	return func(v reflect.Value) (reflect.Value, error) {
		fv := v.Field(index)
		if ft.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return reflect.Value{}, fmt.Errorf("embedded %s is nil", ft)
			}
			return fv.Elem(), nil
		}
		return fv, nil
	}
}

func fieldMember(f reflect.StructField, index int) (*Member, error) {
	as, err := ParseTag(f.Tag.Get(TagKey))
	if err != nil {
		return nil, err
	}

	exported := f.IsExported()
	get := func(v reflect.Value) (reflect.Value, error) {
		fv := v.Field(index)
		if exported {
			return fv, nil
		}
		if !fv.CanAddr() {
			return reflect.Value{}, ErrNotAddressable
		}
		return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem(), nil
	}
	set := func(v reflect.Value, value reflect.Value) error {
		target, err := get(v)
		if err != nil {
			return err
		}
		if !target.CanSet() {
			return ErrNotAddressable
		}
		converted, err := assignable(value, target.Type())
		if err != nil {
			return err
		}
		target.Set(converted)
		return nil
	}

	return &Member{
		Name:        memberName(f),
		GoName:      f.Name,
		Kind:        StoredField,
		Exported:    exported,
		Type:        Of(f.Type),
		Annotations: as,
		Get:         get,
		Set:         set,
	}, nil
}

// accessorMembers finds getter/setter pairs declared on t itself. A getter
// without a setter is kept only when AccessorTags annotates it.
func accessorMembers(t reflect.Type, parent *Descriptor) ([]*Member, error) {
	pt := reflect.PointerTo(t)

	var tags map[string]string
	if pt.Implements(taggerType) {
		tags = reflect.New(t).Interface().(AccessorTagger).AccessorTags()
	}

	var members []*Member
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 || m.Name == "AccessorTags" {
			continue
		}
		if parent != nil {
			if _, promoted := reflect.PointerTo(parent.Type).MethodByName(m.Name); promoted {
				continue
			}
		}

		prop := propertyName(m.Name)
		setter, hasSetter := pt.MethodByName("Set" + prop)
		if hasSetter && (setter.Type.NumIn() != 2 || setter.Type.NumOut() > 1) {
			hasSetter = false
		}
		tag, tagged := tags[prop]
		if !hasSetter && !tagged {
			continue
		}

		as, err := ParseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, m.Name, err)
		}

		getterName := m.Name
		member := &Member{
			Name:        ustrings.ToLowerCamel(prop),
			GoName:      prop,
			Kind:        AccessorPair,
			Exported:    true,
			Type:        Of(m.Type.Out(0)),
			Annotations: as,
			Get: func(v reflect.Value) (reflect.Value, error) {
				return addressable(v).MethodByName(getterName).Call(nil)[0], nil
			},
		}
		if hasSetter {
			setterName := setter.Name
			in := setter.Type.In(1)
			member.Set = func(v reflect.Value, value reflect.Value) error {
				if !v.CanAddr() {
					return ErrNotAddressable
				}
				converted, err := assignable(value, in)
				if err != nil {
					return err
				}
				out := v.Addr().MethodByName(setterName).Call([]reflect.Value{converted})
				if len(out) == 1 && !out[0].IsNil() {
					return out[0].Interface().(error)
				}
				return nil
			}
		}
		members = append(members, member)
	}
	return members, nil
}

func propertyName(method string) string {
	if rest, ok := strings.CutPrefix(method, "Get"); ok && rest != "" && unicode.IsUpper([]rune(rest)[0]) {
		return rest
	}
	return method
}

func memberName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return ustrings.ToLowerCamel(f.Name)
}

// addressable returns a pointer to v, copying v when it cannot be addressed
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	return cp
}

func assignable(value reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Zero(to), nil
	}
	if value.Type().AssignableTo(to) {
		return value, nil
	}
	if value.Type().ConvertibleTo(to) {
		return value.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", value.Type(), to)
}
