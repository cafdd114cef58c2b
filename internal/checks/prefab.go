package checks

import "reflect"

// RoleAll grants access to everyone
type RoleAll struct {
	Declaration `dict:"security_check,alias:Prefab.Role.All"`
}

// RoleNone denies access to everyone
type RoleNone struct {
	Declaration `dict:"security_check,alias:Prefab.Role.None"`
}

// AppendOnly allows adding members to a collection but not removing them
type AppendOnly struct {
	Declaration `dict:"security_check,alias:Prefab.Collections.AppendOnly"`
}

// RemoveOnly allows removing members from a collection but not adding them
type RemoveOnly struct {
	Declaration `dict:"security_check,alias:Prefab.Collections.RemoveOnly"`
}

// UpdateOnCreate allows updates only while the entity is being created
type UpdateOnCreate struct {
	Declaration `dict:"security_check,alias:Prefab.Common.UpdateOnCreate"`
}

var prefabs = []reflect.Type{
	reflect.TypeFor[RoleAll](),
	reflect.TypeFor[RoleNone](),
	reflect.TypeFor[AppendOnly](),
	reflect.TypeFor[RemoveOnly](),
	reflect.TypeFor[UpdateOnCreate](),
}
