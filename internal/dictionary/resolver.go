package dictionary

import (
	"github.com/conduit-lang/entitydict/internal/model"
)

// inclusionPriority decides API exposure: exclusion beats inclusion on the same level
var inclusionPriority = []string{model.Exclude, model.Include}

// ResolveAnnotation walks the lineage from the described type upward and
// returns the first annotation of priority found on the nearest level that
// declares any of them. Within one level the priority order decides.
func ResolveAnnotation(lineage []model.Level, priority ...string) (model.Annotation, int, bool) {
	for _, level := range lineage {
		for _, name := range priority {
			if a, ok := level.Descriptor.Annotations.Get(name); ok {
				return a, level.Depth, true
			}
		}
	}
	return model.Annotation{}, -1, false
}

// inheritedAnnotation returns the nearest type-level annotation of one name
func inheritedAnnotation(lineage []model.Level, name string) (model.Annotation, bool) {
	a, _, ok := ResolveAnnotation(lineage, name)
	return a, ok
}
