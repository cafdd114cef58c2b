package dictionary

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/entitydict/internal/model"
)

// Cardinality is the number of targets a relationship holds
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

// String returns the string representation of the cardinality
func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to_one"
	case ToMany:
		return "to_many"
	default:
		return "unknown"
	}
}

// Identifier is the member carrying the id annotation
type Identifier struct {
	Name        string
	Type        reflect.Type
	Annotations model.Annotations
}

// Attribute is an exposed non-relationship member
type Attribute struct {
	Name        string
	Type        reflect.Type
	Computed    bool
	Annotations model.Annotations
}

// Relationship is an exposed member pointing at another entity type
type Relationship struct {
	Name          string
	Type          reflect.Type // declared type after type variable substitution
	Target        reflect.Type // element type, pointers stripped
	Cardinality   Cardinality
	MappedBy      string
	CascadeDelete bool
	Shareable     bool
	Annotations   model.Annotations
}

// TypeOracle answers questions about types other than the one being classified
type TypeOracle interface {
	Bindable(t reflect.Type) bool
	Excluded(t reflect.Type) bool
	Shareable(t reflect.Type) bool
}

// Classification is the member split of one type
type Classification struct {
	Identifier    *Identifier
	Attributes    []*Attribute
	Relationships []*Relationship

	// members maps every classified name to its descriptor entry
	members map[string]candidate
}

// Classify splits the visible members of d into identifier, attributes and
// relationships. Each member lands in at most one of the three.
func Classify(d *model.Descriptor, strategy AccessStrategy, oracle TypeOracle) (*Classification, error) {
	c := &Classification{members: make(map[string]candidate)}
	idDepth := -1

	for _, cand := range candidates(d, strategy) {
		m := cand.member
		as := m.Annotations

		if as.Has(model.ID) {
			typ, err := m.Type.Resolve(cand.level.Env)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrMalformedIdentifier, d.Name, m.Name, err)
			}
			// the identifier declared closest to the described type wins
			if idDepth < 0 || cand.level.Depth < idDepth {
				if c.Identifier != nil {
					delete(c.members, c.Identifier.Name)
				}
				c.Identifier = &Identifier{Name: m.Name, Type: typ, Annotations: as}
				c.members[m.Name] = cand
				idDepth = cand.level.Depth
			}
			continue
		}

		if as.Has(model.Exclude) {
			continue
		}
		computed := as.Has(model.Computed)
		if as.Has(model.Transient) && !computed {
			continue
		}

		typ, err := m.Type.Resolve(cand.level.Env)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Name, m.Name, err)
		}

		// members pointing at excluded types are hidden with them
		if elem, _ := elementOf(typ); oracle.Excluded(model.Indirect(elem)) {
			continue
		}

		if rel := relationshipOf(m.Name, typ, as, oracle); rel != nil {
			c.Relationships = append(c.Relationships, rel)
		} else {
			c.Attributes = append(c.Attributes, &Attribute{
				Name:        m.Name,
				Type:        typ,
				Computed:    computed,
				Annotations: as,
			})
		}
		c.members[m.Name] = cand
	}
	return c, nil
}

// relationshipOf returns a relationship when the member is explicitly marked
// or its type, or the element of its slice or array type, is bindable.
func relationshipOf(name string, typ reflect.Type, as model.Annotations, oracle TypeOracle) *Relationship {
	relation, explicit := as.Get(model.Relation)

	elem, many := elementOf(typ)
	target := model.Indirect(elem)
	if !explicit && !oracle.Bindable(target) {
		return nil
	}

	cardinality := ToOne
	switch {
	case relation.Has(model.ArgToMany):
		cardinality = ToMany
	case relation.Has(model.ArgToOne):
		cardinality = ToOne
	case many:
		cardinality = ToMany
	}

	rel := &Relationship{
		Name:        name,
		Type:        typ,
		Target:      target,
		Cardinality: cardinality,
		Shareable:   oracle.Shareable(target),
		Annotations: as,
	}
	rel.MappedBy, _ = relation.Arg(model.ArgMappedBy)
	if cascade, ok := as.Get(model.Cascade); ok {
		rel.CascadeDelete = cascade.Has(model.ArgDelete)
	}
	return rel
}

// elementOf unwraps single-parameter containers
func elementOf(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	default:
		return t, false
	}
}
