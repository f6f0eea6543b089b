package models

import "fmt"

type ContextKey string

const (
	// UserIDKey is where the auth middleware stores the resolved user id
	// on the request context.
	UserIDKey ContextKey = "user_id"
)

// Permission is one capability from the fixed catalog. Roles hold a set
// of these; the catalog itself has no lifecycle.
type Permission int

const (
	PermissionDelete Permission = iota + 1
	PermissionBan
	PermissionDropGroup
	PermissionManageRole
	PermissionPromote
)

var permissionNames = map[Permission]string{
	PermissionDelete:     "delete",
	PermissionBan:        "ban",
	PermissionDropGroup:  "drop_group",
	PermissionManageRole: "manage_role",
	PermissionPromote:    "promote",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// Valid reports whether p is a member of the catalog.
func (p Permission) Valid() bool {
	_, ok := permissionNames[p]
	return ok
}

// ParsePermission maps a wire name back to a catalog member.
func ParsePermission(name string) (Permission, bool) {
	for p, n := range permissionNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// AllPermissions lists the catalog in stable order.
func AllPermissions() []Permission {
	return []Permission{
		PermissionDelete,
		PermissionBan,
		PermissionDropGroup,
		PermissionManageRole,
		PermissionPromote,
	}
}
