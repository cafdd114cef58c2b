package dictionary

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnboundType is returned when a type was never bound and cannot be
	// resolved to a bound ancestor or an empty marker binding
	ErrUnboundType = errors.New("type is not bound")

	// ErrUnknownType is returned by projections over a type that was never bound
	ErrUnknownType = fmt.Errorf("unknown type: %w", ErrUnboundType)

	// ErrMalformedIdentifier is returned when an identifier's declared type cannot be determined
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrUnknownMember is returned when a member is not an attribute, relationship or identifier
	ErrUnknownMember = errors.New("unknown member")

	// ErrNotRelationship is returned when a relationship query names an attribute
	ErrNotRelationship = errors.New("member is not a relationship")

	// ErrDuplicateExposedName is returned when two types claim the same exposed name
	ErrDuplicateExposedName = errors.New("exposed name already bound")
)

// BindError reports a binding failure local to one type
type BindError struct {
	Type reflect.Type
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Type, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

func unknownType(t reflect.Type) error {
	return fmt.Errorf("%w: %v", ErrUnknownType, t)
}

func unboundType(t reflect.Type) error {
	return fmt.Errorf("%w: %v", ErrUnboundType, t)
}
