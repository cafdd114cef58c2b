package dictionary

import (
	"github.com/conduit-lang/entitydict/internal/model"
)

// AccessStrategy selects how members of a type are discovered and read
type AccessStrategy int

const (
	// FieldAccess reads stored fields; accessors count only when computed
	FieldAccess AccessStrategy = iota
	// PropertyAccess reads accessor pairs and exported fields
	PropertyAccess
)

// String returns the string representation of the access strategy
func (a AccessStrategy) String() string {
	switch a {
	case FieldAccess:
		return "field"
	case PropertyAccess:
		return "property"
	default:
		return "unknown"
	}
}

// DetectAccessStrategy picks the strategy from where the identifier is
// declared: a stored field means FieldAccess, an accessor PropertyAccess.
// Types without an identifier use FieldAccess.
func DetectAccessStrategy(d *model.Descriptor) AccessStrategy {
	for _, level := range d.Lineage() {
		for _, m := range level.Descriptor.Members {
			if !m.Annotations.Has(model.ID) {
				continue
			}
			if m.Kind == model.AccessorPair {
				return PropertyAccess
			}
			return FieldAccess
		}
	}
	return FieldAccess
}

// candidate is a member visible under a strategy together with its level
type candidate struct {
	member *model.Member
	level  model.Level
}

// candidates lists visible members in root-to-leaf declaration order.
// A name declared closer to the described type shadows ancestors. Within a
// level, PropertyAccess lets an accessor pair shadow the stored field of the
// same name.
func candidates(d *model.Descriptor, strategy AccessStrategy) []candidate {
	lineage := d.Lineage()
	perLevel := make([][]candidate, len(lineage))
	seen := make(map[string]bool)

	for i, level := range lineage {
		accessors := accessorNames(level.Descriptor, strategy)
		for _, m := range level.Descriptor.Members {
			if !visible(m, strategy) || seen[m.Name] {
				continue
			}
			if m.Kind == model.StoredField && accessors[m.Name] {
				continue
			}
			seen[m.Name] = true
			perLevel[i] = append(perLevel[i], candidate{member: m, level: level})
		}
	}

	var result []candidate
	for i := len(perLevel) - 1; i >= 0; i-- {
		result = append(result, perLevel[i]...)
	}
	return result
}

func visible(m *model.Member, strategy AccessStrategy) bool {
	switch strategy {
	case PropertyAccess:
		return m.Kind == model.AccessorPair || m.Exported
	default:
		return m.Kind == model.StoredField || m.Annotations.Has(model.Computed)
	}
}

// accessorNames returns the accessor pairs of one level that shadow stored
// fields under strategy
func accessorNames(d *model.Descriptor, strategy AccessStrategy) map[string]bool {
	if strategy != PropertyAccess {
		return nil
	}
	names := make(map[string]bool)
	for _, m := range d.Members {
		if m.Kind == model.AccessorPair {
			names[m.Name] = true
		}
	}
	return names
}
