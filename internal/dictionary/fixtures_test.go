package dictionary

import (
	"reflect"
	"slices"

	"github.com/conduit-lang/entitydict/internal/model"
)

type parent struct {
	model.Meta `dict:"include,root_level;entity"`

	ID        int64    `dict:"id;generated"`
	Children  []*child `dict:"relation,to_many;cascade,persist"`
	FirstName string
}

type child struct {
	model.Meta `dict:"include;entity"`

	ID      int64 `dict:"id;generated"`
	Parents []*parent
	Name    string
}

type friend struct {
	child
	model.Meta `dict:"include,type:pal,root_level"`

	Nickname string
}

type funWithPermissions struct {
	model.Meta `dict:"include;read_permission,expression:'Prefab.Role.All'"`

	ID        int64  `dict:"id"`
	Field1    string `dict:"read_permission,expression:'Prefab.Role.None'"`
	Field2    string
	Field3    string `dict:"update_permission,expression:'Prefab.Role.None'"`
	Relation1 []*child
	Relation2 []*child `dict:"cascade,persist"`
	Relation3 *child   `dict:"cascade,delete"`
	Relation4 *child   `dict:"cascade,all"`
	Relation5 *child   `dict:"cascade,merge"`
}

type user struct {
	model.Meta `dict:"include"`

	ID               int64  `dict:"id"`
	reversedPassword string `dict:"exclude"`
}

func (u *user) Password() string     { return reverse(u.reversedPassword) }
func (u *user) SetPassword(p string) { u.reversedPassword = reverse(p) }
func (u *user) AccessorTags() map[string]string {
	return map[string]string{"Password": "computed"}
}

func reverse(s string) string {
	r := []rune(s)
	slices.Reverse(r)
	return string(r)
}

type left struct {
	model.Meta `dict:"include"`

	ID    int64 `dict:"id"`
	Right *right
}

type right struct {
	model.Meta `dict:"include;shareable"`

	ID int64 `dict:"id"`
}

type job struct {
	model.Meta `dict:"include"`

	JobID int64  `json:"jobId" dict:"id"`
	Title string `json:"title"`
}

type stringID struct {
	model.Meta `dict:"include"`

	SurrogateKey string `dict:"id"`
	Value        string
}

type noID struct {
	model.Meta `dict:"include"`
}

// generic base specialized by a Go type argument
type supervisor[T any] struct {
	Minions []*T `json:"minions"`
}

type manager struct {
	model.Meta `dict:"include"`
	supervisor[employee]

	ID int64 `dict:"id"`
}

type employee struct {
	model.Meta `dict:"include"`

	ID   int64    `dict:"id"`
	Boss *manager `json:"boss"`
}

type fieldLevel struct {
	model.Meta `dict:"include;entity"`

	id            int64 `dict:"id"`
	bar           int
	excluded      int `dict:"exclude"`
	computedField int `dict:"transient;computed"`
	scratch       int `dict:"transient"`
}

func (f *fieldLevel) ComputedProperty() int   { return 1 }
func (f *fieldLevel) SetComputedProperty(int) {}
func (f *fieldLevel) AccessorTags() map[string]string {
	return map[string]string{"ComputedProperty": "transient;computed"}
}

type propertyLevel struct {
	model.Meta `dict:"include;entity"`

	id            int64
	excluded      int
	Bar           int
	computedField int `dict:"transient;computed"`
}

func (p *propertyLevel) ID() int64               { return p.id }
func (p *propertyLevel) SetID(v int64)           { p.id = v }
func (p *propertyLevel) Excluded() int           { return p.excluded }
func (p *propertyLevel) SetExcluded(v int)       { p.excluded = v }
func (p *propertyLevel) ComputedProperty() int   { return 1 }
func (p *propertyLevel) SetComputedProperty(int) {}
func (p *propertyLevel) AccessorTags() map[string]string {
	return map[string]string{
		"ID":               "id",
		"Excluded":         "exclude",
		"ComputedProperty": "transient;computed",
	}
}

type suitableInterface interface {
	model.Mapped
}

type badInterface interface {
	Foo()
}

type author struct {
	model.Meta `dict:"include"`

	ID    int64   `dict:"id"`
	Books []*book `dict:"relation,mapped_by:writer"`
}

type book struct {
	model.Meta `dict:"include"`

	ID     int64 `dict:"id"`
	Writer *author
}

// placeholder identities for descriptors declared with the builder
type roster struct{}
type team struct{}
type orphanTeam struct{}
type badKey struct{}

type player struct {
	model.Meta `dict:"include"`

	ID int64 `dict:"id"`
}

func rosterDescriptors() []*model.Descriptor {
	base := model.NewBuilder(reflect.TypeFor[roster]()).
		Params("T").
		Field("members", model.SliceOf(model.Var("T")), "").
		Field("captain", model.Var("T"), "").
		MustBuild()

	teamDesc := model.NewBuilder(reflect.TypeFor[team]()).
		Tag("include").
		Extends(base, map[string]*model.TypeRef{"T": model.Of(reflect.TypeFor[player]())}).
		Field("id", model.Of(reflect.TypeFor[int64]()), "id").
		Field("motto", model.Of(reflect.TypeFor[string]()), "").
		MustBuild()

	orphan := model.NewBuilder(reflect.TypeFor[orphanTeam]()).
		Tag("include").
		Extends(base, nil).
		MustBuild()

	bad := model.NewBuilder(reflect.TypeFor[badKey]()).
		Tag("include").
		Params("K").
		Field("key", model.Var("K"), "id").
		MustBuild()

	return []*model.Descriptor{base, teamDesc, orphan, bad}
}

func newTestDictionary() *Dictionary {
	scanner := model.NewScanner()
	for _, d := range rosterDescriptors() {
		scanner.Register(d)
	}
	return New(Config{Scanner: scanner, Catalog: model.NewCatalog()})
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

func typeOfValue(v any) reflect.Type {
	return reflect.TypeOf(v)
}

var coreTypes = []reflect.Type{
	typeOf[funWithPermissions](),
	typeOf[parent](),
	typeOf[child](),
	typeOf[user](),
	typeOf[left](),
	typeOf[right](),
	typeOf[stringID](),
	typeOf[friend](),
	typeOf[fieldLevel](),
	typeOf[propertyLevel](),
	typeOf[manager](),
	typeOf[employee](),
	typeOf[job](),
	typeOf[noID](),
}
