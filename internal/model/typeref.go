package model

import (
	"fmt"
	"reflect"
)

// TypeRef is a declared member type. It is either a concrete Go type, a type
// variable of the declaring descriptor, or a slice whose element is itself a
// TypeRef (so []T can be declared on a generic base).
type TypeRef struct {
	concrete reflect.Type
	variable string
	elem     *TypeRef
}

// Of references a concrete type
func Of(t reflect.Type) *TypeRef {
	if t == nil {
		return nil
	}
	return &TypeRef{concrete: t}
}

// Var references a type variable declared with Builder.Params
func Var(name string) *TypeRef {
	return &TypeRef{variable: name}
}

// SliceOf references a slice of elem
func SliceOf(elem *TypeRef) *TypeRef {
	return &TypeRef{elem: elem}
}

// IsVariable reports whether the reference is a bare type variable
func (r *TypeRef) IsVariable() bool {
	return r != nil && r.variable != ""
}

// Variable returns the variable name, if any
func (r *TypeRef) Variable() string {
	if r == nil {
		return ""
	}
	return r.variable
}

// IsConcrete reports whether the reference contains no type variables
func (r *TypeRef) IsConcrete() bool {
	switch {
	case r == nil:
		return false
	case r.concrete != nil:
		return true
	case r.elem != nil:
		return r.elem.IsConcrete()
	default:
		return false
	}
}

// Resolve substitutes type variables using env and returns the concrete type
func (r *TypeRef) Resolve(env Env) (reflect.Type, error) {
	switch {
	case r == nil:
		return nil, fmt.Errorf("no declared type")
	case r.concrete != nil:
		return r.concrete, nil
	case r.elem != nil:
		elem, err := r.elem.Resolve(env)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	default:
		t, ok := env[r.variable]
		if !ok || t == nil {
			return nil, fmt.Errorf("unresolved type variable %s", r.variable)
		}
		return t, nil
	}
}

// String returns a readable form of the reference
func (r *TypeRef) String() string {
	switch {
	case r == nil:
		return "<none>"
	case r.concrete != nil:
		return r.concrete.String()
	case r.elem != nil:
		return "[]" + r.elem.String()
	default:
		return r.variable
	}
}

// Env maps type variable names to concrete types for one level of a lineage
type Env map[string]reflect.Type
