// Package model describes entity types for the dictionary: type-level and
// member annotations, type references with generic parameters, and the
// descriptor table (members with accessor closures) built once per type.
package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vmihailenco/tagparser/v2"
)

// TagKey is the struct tag key read by the scanner.
const TagKey = "dict"

// Annotation names understood by the dictionary.
const (
	// Type level
	Include         = "include"
	Exclude         = "exclude"
	Entity          = "entity"
	MappedInterface = "mapped_interface"
	Shareable       = "shareable"
	SecurityCheck   = "security_check"

	// Member level
	ID        = "id"
	Generated = "generated"
	Transient = "transient"
	Computed  = "computed"
	Relation  = "relation"
	Cascade   = "cascade"

	// Permissions, either level
	ReadPermission   = "read_permission"
	UpdatePermission = "update_permission"
	CreatePermission = "create_permission"
	DeletePermission = "delete_permission"
	SharePermission  = "share_permission"
)

// Annotation arguments.
const (
	ArgType       = "type"
	ArgRootLevel  = "root_level"
	ArgTable      = "table"
	ArgToOne      = "to_one"
	ArgToMany     = "to_many"
	ArgMappedBy   = "mapped_by"
	ArgDelete     = "delete"
	ArgExpression = "expression"
	ArgAlias      = "alias"
)

// Annotation is a single marker with optional arguments
type Annotation struct {
	Name string
	Args map[string]string
}

// Arg returns the value of a named argument
func (a Annotation) Arg(key string) (string, bool) {
	v, ok := a.Args[key]
	return v, ok
}

// Has reports whether the argument is present, with or without a value
func (a Annotation) Has(key string) bool {
	_, ok := a.Args[key]
	return ok
}

// String renders the annotation back in tag form
func (a Annotation) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	var b strings.Builder
	b.WriteString(a.Name)
	for _, k := range slices.Sorted(maps.Keys(a.Args)) {
		b.WriteByte(',')
		b.WriteString(k)
		if v := a.Args[k]; v != "" {
			b.WriteByte(':')
			b.WriteString(v)
		}
	}
	return b.String()
}

// Annotations is an ordered list of annotations declared at one site
type Annotations []Annotation

// Get returns the first annotation with the given name
func (as Annotations) Get(name string) (Annotation, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// Has reports whether an annotation with the given name is present
func (as Annotations) Has(name string) bool {
	_, ok := as.Get(name)
	return ok
}

// Names returns annotation names in declaration order
func (as Annotations) Names() []string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Name
	}
	return names
}

// ParseTag parses a dict tag. Annotations are separated by ';' and each one
// uses the tagparser grammar: name,flag,key:value,key:'quoted value'.
func ParseTag(tag string) (Annotations, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, nil
	}

	var result Annotations
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed := tagparser.Parse(part)
		if parsed.Name == "" {
			return nil, fmt.Errorf("annotation without name in tag %q", tag)
		}
		a := Annotation{Name: parsed.Name}
		if len(parsed.Options) > 0 {
			a.Args = make(map[string]string, len(parsed.Options))
			for k, v := range parsed.Options {
				a.Args[k] = v
			}
		}
		result = append(result, a)
	}
	return result, nil
}

// MustParseTag is ParseTag for literals known to be valid
func MustParseTag(tag string) Annotations {
	as, err := ParseTag(tag)
	if err != nil {
		panic(err)
	}
	return as
}
