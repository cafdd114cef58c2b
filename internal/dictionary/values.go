package dictionary

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/entitydict/internal/model"
)

// GetValue reads a member of entity through its descriptor closures.
// Unexported fields need entity to be a pointer.
func (d *Dictionary) GetValue(entity any, member string) (any, error) {
	m, level, err := d.resolveMember(entity, member)
	if err != nil {
		return nil, err
	}
	if m.Get == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNoAccessor, member)
	}
	v, err := m.Get(level)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", member, err)
	}
	return v.Interface(), nil
}

// SetValue writes a member of entity, converting value when the types are
// convertible. A nil value stores the zero value.
func (d *Dictionary) SetValue(entity any, member string, value any) error {
	if v := reflect.ValueOf(entity); !v.IsValid() || v.Kind() != reflect.Pointer {
		return fmt.Errorf("set %s: %w", member, model.ErrNotAddressable)
	}
	m, level, err := d.resolveMember(entity, member)
	if err != nil {
		return err
	}
	if m.Set == nil {
		return fmt.Errorf("%w: %s", model.ErrNoAccessor, member)
	}
	if err := m.Set(level, reflect.ValueOf(value)); err != nil {
		return fmt.Errorf("set %s: %w", member, err)
	}
	return nil
}

// resolveMember finds the descriptor member serving name and moves from
// entity to the value of the level declaring it. The runtime type of entity
// may be a subtype of the bound type.
func (d *Dictionary) resolveMember(entity any, name string) (*model.Member, reflect.Value, error) {
	if entity == nil {
		return nil, reflect.Value{}, fmt.Errorf("nil entity")
	}
	v := reflect.ValueOf(entity)
	t := model.Indirect(v.Type())

	b, err := d.lookup(t)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	c, ok := b.member(name)
	if !ok && name == "id" && b.Identifier != nil {
		c, ok = b.member(b.Identifier.Name)
	}
	if !ok {
		return nil, reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrUnknownMember, b.ExposedName, name)
	}

	desc, err := d.scanner.Describe(t)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	depth := -1
	for _, level := range desc.Lineage() {
		if level.Descriptor == c.level.Descriptor {
			depth = level.Depth
			break
		}
	}
	if depth < 0 {
		return nil, reflect.Value{}, fmt.Errorf("%s does not inherit %s", t, c.level.Descriptor.Name)
	}

	level, err := desc.Navigate(v, depth)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	return c.member, level, nil
}
