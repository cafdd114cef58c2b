package hooks

import (
	"reflect"
)

// Trigger identifies when a lifecycle hook runs: an operation and a phase
type Trigger int

const (
	OnCreatePreSecurity Trigger = iota
	OnCreatePreCommit
	OnCreatePostCommit
	OnReadPreSecurity
	OnReadPreCommit
	OnReadPostCommit
	OnUpdatePreSecurity
	OnUpdatePreCommit
	OnUpdatePostCommit
	OnDeletePreSecurity
	OnDeletePreCommit
	OnDeletePostCommit
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	switch t {
	case OnCreatePreSecurity:
		return "on_create_pre_security"
	case OnCreatePreCommit:
		return "on_create_pre_commit"
	case OnCreatePostCommit:
		return "on_create_post_commit"
	case OnReadPreSecurity:
		return "on_read_pre_security"
	case OnReadPreCommit:
		return "on_read_pre_commit"
	case OnReadPostCommit:
		return "on_read_post_commit"
	case OnUpdatePreSecurity:
		return "on_update_pre_security"
	case OnUpdatePreCommit:
		return "on_update_pre_commit"
	case OnUpdatePostCommit:
		return "on_update_post_commit"
	case OnDeletePreSecurity:
		return "on_delete_pre_security"
	case OnDeletePreCommit:
		return "on_delete_pre_commit"
	case OnDeletePostCommit:
		return "on_delete_post_commit"
	default:
		return "unknown"
	}
}

// IsPostCommit returns true for triggers that run after the transaction commits
func (t Trigger) IsPostCommit() bool {
	return t == OnCreatePostCommit || t == OnReadPostCommit ||
		t == OnUpdatePostCommit || t == OnDeletePostCommit
}

// Hook is a lifecycle callback
type Hook interface {
	Execute(ctx *Context, entity any) error
}

// HookFunc adapts a function to Hook
type HookFunc func(ctx *Context, entity any) error

// Execute calls f
func (f HookFunc) Execute(ctx *Context, entity any) error {
	return f(ctx, entity)
}

// Registration binds a hook to a trigger and optionally to one field.
// An empty Field registers a type-level hook; AllowMultiple makes a
// type-level hook run once per changed field instead of once per event.
type Registration struct {
	Trigger       Trigger
	Field         string
	Hook          Hook
	AllowMultiple bool
	Async         bool
}

// Source resolves the hooks registered for a type
type Source interface {
	Hooks(t reflect.Type, trigger Trigger) ([]Registration, error)
}
