package hooks

import (
	"context"
	"reflect"
)

// Context wraps the standard context with information about the event a
// hook is running for
type Context struct {
	context.Context
	trigger    Trigger
	field      string
	entityType reflect.Type
}

// NewContext creates a new hook context
func NewContext(ctx context.Context, trigger Trigger, entityType reflect.Type) *Context {
	return &Context{
		Context:    ctx,
		trigger:    trigger,
		entityType: entityType,
	}
}

// WithField creates a new context for a field-level invocation
func (c *Context) WithField(field string) *Context {
	return &Context{
		Context:    c.Context,
		trigger:    c.trigger,
		field:      field,
		entityType: c.entityType,
	}
}

// Trigger returns the trigger being fired
func (c *Context) Trigger() Trigger {
	return c.trigger
}

// Field returns the changed field, empty for type-level invocations
func (c *Context) Field() string {
	return c.field
}

// EntityType returns the runtime type of the entity
func (c *Context) EntityType() reflect.Type {
	return c.entityType
}
