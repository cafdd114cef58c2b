package introspect

import (
	"github.com/conduit-lang/entitydict/internal/dictionary"
	"github.com/conduit-lang/entitydict/internal/model"
)

// BindingView is the serialized form of an entity binding
type BindingView struct {
	Name           string             `json:"name"`
	Type           string             `json:"type"`
	RootLevel      bool               `json:"root_level"`
	Shareable      bool               `json:"shareable"`
	AccessStrategy string             `json:"access_strategy"`
	Identifier     *MemberView        `json:"identifier,omitempty"`
	Attributes     []MemberView       `json:"attributes"`
	Relationships  []RelationshipView `json:"relationships"`
	Lineage        []string           `json:"lineage"`
	Annotations    []string           `json:"annotations,omitempty"`
	Hooks          int                `json:"hooks"`
}

// MemberView describes an identifier or attribute
type MemberView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Computed    bool     `json:"computed,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// RelationshipView describes a relationship
type RelationshipView struct {
	Name          string `json:"name"`
	Target        string `json:"target"`
	Cardinality   string `json:"cardinality"`
	Inverse       string `json:"inverse,omitempty"`
	CascadeDelete bool   `json:"cascade_delete,omitempty"`
	Shareable     bool   `json:"shareable,omitempty"`
}

// CheckView pairs a check alias with its type
type CheckView struct {
	Alias string `json:"alias"`
	Type  string `json:"type"`
}

// NewBindingView renders b. Targets are named by their exposed name when
// bound.
func NewBindingView(d *dictionary.Dictionary, b *dictionary.EntityBinding) BindingView {
	view := BindingView{
		Name:           b.ExposedName,
		Type:           b.EntityType.String(),
		RootLevel:      b.RootLevel,
		Shareable:      b.Shareable,
		AccessStrategy: b.AccessStrategy.String(),
		Attributes:     make([]MemberView, 0, len(b.Attributes())),
		Relationships:  make([]RelationshipView, 0, len(b.Relationships())),
		Annotations:    annotationStrings(b.Annotations()),
		Hooks:          b.HookCount(),
	}
	if id := b.Identifier; id != nil {
		view.Identifier = &MemberView{
			Name:        id.Name,
			Type:        id.Type.String(),
			Annotations: annotationStrings(id.Annotations),
		}
	}
	for _, a := range b.Attributes() {
		view.Attributes = append(view.Attributes, MemberView{
			Name:        a.Name,
			Type:        a.Type.String(),
			Computed:    a.Computed,
			Annotations: annotationStrings(a.Annotations),
		})
	}
	for _, r := range b.Relationships() {
		target := r.Target.String()
		if name, err := d.GetExposedName(r.Target); err == nil && name != "" {
			target = name
		}
		inverse, _ := d.GetRelationInverse(b.EntityType, r.Name)
		view.Relationships = append(view.Relationships, RelationshipView{
			Name:          r.Name,
			Target:        target,
			Cardinality:   r.Cardinality.String(),
			Inverse:       inverse,
			CascadeDelete: r.CascadeDelete,
			Shareable:     r.Shareable,
		})
	}
	for _, t := range b.Lineage {
		view.Lineage = append(view.Lineage, t.String())
	}
	return view
}

// NewCheckViews lists the registered checks sorted by alias
func NewCheckViews(d *dictionary.Dictionary) []CheckView {
	aliases := d.Checks().Aliases()
	views := make([]CheckView, 0, len(aliases))
	for _, alias := range aliases {
		t, ok := d.Checks().Resolve(alias)
		if !ok {
			continue
		}
		views = append(views, CheckView{Alias: alias, Type: t.String()})
	}
	return views
}

func annotationStrings(as model.Annotations) []string {
	if len(as) == 0 {
		return nil
	}
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.String()
	}
	return out
}
