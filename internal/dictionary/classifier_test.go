package dictionary

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/entitydict/internal/model"
)

// stubOracle treats the listed types as bindable
type stubOracle struct {
	bindable  map[reflect.Type]bool
	excluded  map[reflect.Type]bool
	shareable map[reflect.Type]bool
}

func (s stubOracle) Bindable(t reflect.Type) bool  { return s.bindable[t] }
func (s stubOracle) Excluded(t reflect.Type) bool  { return s.excluded[t] }
func (s stubOracle) Shareable(t reflect.Type) bool { return s.shareable[t] }

type gadget struct {
	ID int64 `dict:"id"`
}

type hiddenGadget struct{}

type widget struct {
	ID        int64 `dict:"id"`
	Label     string
	Tags      []string
	Gadget    *gadget
	Gadgets   []gadget
	Pinned    [2]*gadget
	Spare     *gadget   `dict:"relation,to_one;cascade,delete"`
	Linked    []*gadget `dict:"relation,mapped_by:owner"`
	Forced    string    `dict:"relation"`
	Many      *gadget   `dict:"relation,to_many"`
	Hidden    *gadget   `dict:"exclude;relation"`
	Secret    *hiddenGadget
	Cache     string `dict:"transient"`
	Derived   string `dict:"transient;computed"`
	Generated string `dict:"computed"`
}

func classifyWidget(t *testing.T) *Classification {
	t.Helper()
	desc, err := model.NewScanner().Describe(typeOf[widget]())
	require.NoError(t, err)

	oracle := stubOracle{
		bindable:  map[reflect.Type]bool{typeOf[gadget](): true},
		excluded:  map[reflect.Type]bool{typeOf[hiddenGadget](): true},
		shareable: map[reflect.Type]bool{typeOf[gadget](): true},
	}
	c, err := Classify(desc, FieldAccess, oracle)
	require.NoError(t, err)
	return c
}

func TestClassifySplitsMembers(t *testing.T) {
	c := classifyWidget(t)

	require.NotNil(t, c.Identifier)
	assert.Equal(t, "id", c.Identifier.Name)
	assert.Equal(t, typeOf[int64](), c.Identifier.Type)

	var attrs []string
	for _, a := range c.Attributes {
		attrs = append(attrs, a.Name)
	}
	assert.Equal(t, []string{"label", "tags", "derived", "generated"}, attrs)

	var rels []string
	for _, r := range c.Relationships {
		rels = append(rels, r.Name)
	}
	assert.Equal(t, []string{"gadget", "gadgets", "pinned", "spare", "linked", "forced", "many"}, rels)

	// every classified member appears exactly once
	seen := map[string]int{c.Identifier.Name: 1}
	for _, n := range append(attrs, rels...) {
		seen[n]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, name)
	}
}

func TestClassifyCardinalityAndTargets(t *testing.T) {
	c := classifyWidget(t)
	rels := make(map[string]*Relationship)
	for _, r := range c.Relationships {
		rels[r.Name] = r
	}

	assert.Equal(t, ToOne, rels["gadget"].Cardinality)
	assert.Equal(t, typeOf[gadget](), rels["gadget"].Target)
	assert.Equal(t, typeOf[*gadget](), rels["gadget"].Type)

	assert.Equal(t, ToMany, rels["gadgets"].Cardinality)
	assert.Equal(t, typeOf[gadget](), rels["gadgets"].Target)

	assert.Equal(t, ToMany, rels["pinned"].Cardinality, "arrays are containers")
	assert.Equal(t, typeOf[gadget](), rels["pinned"].Target)

	assert.Equal(t, ToOne, rels["spare"].Cardinality)
	assert.Equal(t, ToMany, rels["many"].Cardinality, "explicit cardinality wins")
	assert.Equal(t, "owner", rels["linked"].MappedBy)
	assert.True(t, rels["gadget"].Shareable)
}

func TestClassifyCascadeDeleteOnlyWhenExplicit(t *testing.T) {
	c := classifyWidget(t)
	for _, r := range c.Relationships {
		assert.Equal(t, r.Name == "spare", r.CascadeDelete, r.Name)
	}
}

func TestClassifyComputed(t *testing.T) {
	c := classifyWidget(t)
	computed := make(map[string]bool)
	for _, a := range c.Attributes {
		computed[a.Name] = a.Computed
	}
	assert.True(t, computed["derived"])
	assert.True(t, computed["generated"])
	assert.False(t, computed["label"])
	_, cached := computed["cache"]
	assert.False(t, cached, "transient without computed is dropped")
}

type idLevelBase struct {
	BaseKey string `dict:"id"`
}

type idLevelLeaf struct {
	idLevelBase
	model.Meta `dict:"include"`

	LeafKey int32 `dict:"id"`
}

func TestClassifyLeafIdentifierWins(t *testing.T) {
	desc, err := model.NewScanner().Describe(typeOf[idLevelLeaf]())
	require.NoError(t, err)

	c, err := Classify(desc, FieldAccess, stubOracle{})
	require.NoError(t, err)
	require.NotNil(t, c.Identifier)
	assert.Equal(t, "leafKey", c.Identifier.Name)
	assert.Equal(t, typeOf[int32](), c.Identifier.Type)
	assert.Empty(t, c.Attributes, "the shadowed identifier is not an attribute")
}

func TestClassifyMalformedIdentifier(t *testing.T) {
	desc := model.NewBuilder(typeOf[badKey]()).
		Tag("include").
		Params("K").
		Field("key", model.Var("K"), "id").
		MustBuild()

	_, err := Classify(desc, FieldAccess, stubOracle{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedIdentifier))
}

func TestClassifyIsDeterministic(t *testing.T) {
	first := classifyWidget(t)
	for i := 0; i < 10; i++ {
		again := classifyWidget(t)
		require.Equal(t, len(first.Attributes), len(again.Attributes))
		for j := range first.Attributes {
			assert.Equal(t, first.Attributes[j].Name, again.Attributes[j].Name)
		}
		for j := range first.Relationships {
			assert.Equal(t, first.Relationships[j].Name, again.Relationships[j].Name)
		}
	}
}
