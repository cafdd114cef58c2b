package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanBase struct {
	Meta `dict:"include,type:base;read_permission,expression:'user has all access'"`
	ID   int64  `dict:"id;generated"`
	Name string `dict:"read_permission,expression:nobody"`
}

type scanChild struct {
	scanBase
	secret string   `dict:"exclude"`
	Tags   []string `json:"labels,omitempty"`
}

type scanGrandChild struct {
	*scanChild
	Extra bool
}

type accessorModel struct {
	id    int64
	title string
}

func (a *accessorModel) ID() int64         { return a.id }
func (a *accessorModel) SetID(v int64)     { a.id = v }
func (a *accessorModel) GetTitle() string  { return a.title }
func (a *accessorModel) SetTitle(v string) { a.title = v }
func (a *accessorModel) Summary() string   { return "summary of " + a.title }
func (a *accessorModel) Unrelated() string { return "" }
func (a *accessorModel) AccessorTags() map[string]string {
	return map[string]string{"ID": "id", "Summary": "transient;computed"}
}

type markedInterface interface {
	Mapped
}

type plainInterface interface {
	Name() string
}

func TestScannerDescribeStruct(t *testing.T) {
	s := NewScanner()

	d, err := s.Describe(reflect.TypeFor[*scanChild]())
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[scanChild](), d.Type)
	assert.Equal(t, "scanChild", d.Name)
	assert.Empty(t, d.Annotations)

	require.NotNil(t, d.Parent)
	assert.Equal(t, reflect.TypeFor[scanBase](), d.Parent.Type)
	assert.Equal(t, []string{Include, ReadPermission}, d.Parent.Annotations.Names())

	names := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"secret", "labels"}, names)

	secret, ok := d.Member("secret")
	require.True(t, ok)
	assert.False(t, secret.Exported)
	assert.True(t, secret.Annotations.Has(Exclude))

	id, ok := d.Parent.Member("id")
	require.True(t, ok)
	assert.Equal(t, StoredField, id.Kind)
	assert.Equal(t, []string{ID, Generated}, id.Annotations.Names())

	assert.Equal(t, []reflect.Type{reflect.TypeFor[scanChild](), reflect.TypeFor[scanBase]()}, d.Types())
}

func TestScannerCachesDescriptors(t *testing.T) {
	s := NewScanner()
	a, err := s.Describe(reflect.TypeFor[scanChild]())
	require.NoError(t, err)
	b, err := s.Describe(reflect.TypeFor[*scanChild]())
	require.NoError(t, err)
	assert.Same(t, a, b)

	parent, err := s.Describe(reflect.TypeFor[scanBase]())
	require.NoError(t, err)
	assert.Same(t, a.Parent, parent)
}

func TestScannerAccessors(t *testing.T) {
	d, err := NewScanner().Describe(reflect.TypeFor[accessorModel]())
	require.NoError(t, err)

	byName := map[string][]*Member{}
	for _, m := range d.Members {
		byName[m.Name] = append(byName[m.Name], m)
	}

	// unexported fields plus three accessors; Unrelated has no setter and no tag
	assert.Len(t, d.Members, 5)
	assert.NotContains(t, byName, "unrelated")

	var idAccessor *Member
	for _, m := range byName["id"] {
		if m.Kind == AccessorPair {
			idAccessor = m
		}
	}
	require.NotNil(t, idAccessor)
	assert.True(t, idAccessor.Annotations.Has(ID))
	assert.NotNil(t, idAccessor.Set)

	require.Len(t, byName["summary"], 1)
	summary := byName["summary"][0]
	assert.True(t, summary.Annotations.Has(Computed))
	assert.Nil(t, summary.Set)

	obj := &accessorModel{}
	v := reflect.ValueOf(obj).Elem()
	require.NoError(t, idAccessor.Set(v, reflect.ValueOf(int64(42))))
	got, err := idAccessor.Get(v)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int())
}

func TestScannerFieldAccess(t *testing.T) {
	s := NewScanner()
	d, err := s.Describe(reflect.TypeFor[scanGrandChild]())
	require.NoError(t, err)
	require.Len(t, d.Lineage(), 3)

	obj := &scanGrandChild{scanChild: &scanChild{}}
	v := reflect.ValueOf(obj)

	childLevel, err := d.Navigate(v, 1)
	require.NoError(t, err)
	secret, _ := d.Parent.Member("secret")
	require.NoError(t, secret.Set(childLevel, reflect.ValueOf("s3cr3t")))
	assert.Equal(t, "s3cr3t", obj.secret)

	baseLevel, err := d.Navigate(v, 2)
	require.NoError(t, err)
	id, _ := d.Parent.Parent.Member("id")
	require.NoError(t, id.Set(baseLevel, reflect.ValueOf(7)))
	assert.Equal(t, int64(7), obj.ID)

	_, err = d.Navigate(reflect.ValueOf(&scanGrandChild{}), 1)
	assert.Error(t, err, "nil embedded pointer cannot be navigated")
}

func TestScannerInterfaces(t *testing.T) {
	s := NewScanner()

	marked, err := s.Describe(reflect.TypeFor[markedInterface]())
	require.NoError(t, err)
	assert.True(t, marked.IsMappedInterface())

	plain, err := s.Describe(reflect.TypeFor[plainInterface]())
	require.NoError(t, err)
	assert.True(t, plain.Interface)
	assert.False(t, plain.IsMappedInterface())
}

func TestScannerRegisterOverrides(t *testing.T) {
	s := NewScanner()
	manual := NewBuilder(reflect.TypeFor[scanBase]()).Tag("exclude").MustBuild()
	s.Register(manual)

	d, err := s.Describe(reflect.TypeFor[scanBase]())
	require.NoError(t, err)
	assert.Same(t, manual, d)
}

func TestScannerBadTag(t *testing.T) {
	type badTag struct {
		Field string `dict:",nope"`
	}
	_, err := NewScanner().Describe(reflect.TypeFor[badTag]())
	assert.Error(t, err)
}
