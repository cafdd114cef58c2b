package dictionary

import (
	"reflect"

	"github.com/conduit-lang/entitydict/internal/model"
)

// LookupPersistenceAncestor returns the nearest type in t's lineage that the
// backing store maps: one declaring entity at its own level, or one marked
// persistent by a data store. Exposure markers play no part. Falls back to t.
func (d *Dictionary) LookupPersistenceAncestor(t reflect.Type) reflect.Type {
	t = model.Indirect(t)
	if level, ok := d.persistenceLevel(t); ok {
		return level.Descriptor.Type
	}
	return t
}

// LookupExposureAncestor returns t when the nearest inclusion or exclusion
// marker in its lineage is an inclusion, and nil otherwise. An exclusion
// closer to t hides inclusions declared further up.
func (d *Dictionary) LookupExposureAncestor(t reflect.Type) reflect.Type {
	t = model.Indirect(t)
	if !d.exposed(t) {
		return nil
	}
	return t
}

func (d *Dictionary) persistenceLevel(t reflect.Type) (model.Level, bool) {
	desc, err := d.scanner.Describe(t)
	if err != nil {
		return model.Level{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, level := range desc.Lineage() {
		if level.Descriptor.Annotations.Has(model.Entity) || d.persistent[level.Descriptor.Type] {
			return level, true
		}
	}
	return model.Level{}, false
}

// exposed resolves inclusion for t
func (d *Dictionary) exposed(t reflect.Type) bool {
	desc, err := d.scanner.Describe(t)
	if err != nil {
		return false
	}
	return included(desc)
}

func included(desc *model.Descriptor) bool {
	a, _, ok := ResolveAnnotation(desc.Lineage(), inclusionPriority...)
	return ok && a.Name == model.Include
}
