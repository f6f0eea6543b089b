package authz

import (
	"context"
	"errors"
	"slices"

	"go-forum/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrTargetNotMember means the user whose role would change has no
	// membership in the group.
	ErrTargetNotMember = errors.New("target is not a member of the group")
	// ErrRoleNotInGroup means the role does not exist or belongs to a
	// different group. A promote racing a role deletion resolves here.
	ErrRoleNotInGroup = errors.New("role does not belong to the group")
)

// MembershipStore is the slice of the membership repository the engine
// needs. SetMemberRole must atomically verify the role still exists in
// the group before rewriting the row, so a membership can never end up
// pointing at a deleted role.
type MembershipStore interface {
	MemberRole(ctx context.Context, userID, groupID primitive.ObjectID) (primitive.ObjectID, bool, error)
	SetMemberRole(ctx context.Context, userID, groupID, roleID primitive.ObjectID) (bool, error)
}

// RoleStore is the slice of the role registry the engine needs.
type RoleStore interface {
	RolePermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error)
	RoleGroup(ctx context.Context, roleID primitive.ObjectID) (primitive.ObjectID, bool, error)
	BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error)
}

// Engine answers membership and permission questions and moves members
// between roles. It is pure mechanism: ownership is never consulted
// here, callers compose it explicitly where an action demands it, and
// promote preconditions (the acting user holding Promote/ManageRole)
// are enforced by the calling layer.
type Engine interface {
	HasPermission(ctx context.Context, userID, groupID primitive.ObjectID, perm models.Permission) (bool, error)
	UserPermissions(ctx context.Context, userID, groupID primitive.ObjectID) ([]models.Permission, error)
	Promote(ctx context.Context, groupID, targetID, roleID primitive.ObjectID) error
	Demote(ctx context.Context, groupID, userID primitive.ObjectID) error
}

type EngineImpl struct {
	Memberships MembershipStore
	Roles       RoleStore
}

func NewEngine(memberships MembershipStore, roles RoleStore) Engine {
	return &EngineImpl{
		Memberships: memberships,
		Roles:       roles,
	}
}

// HasPermission fails closed: no membership means false, never an error.
func (e *EngineImpl) HasPermission(ctx context.Context, userID, groupID primitive.ObjectID, perm models.Permission) (bool, error) {
	roleID, isMember, err := e.Memberships.MemberRole(ctx, userID, groupID)
	if err != nil {
		return false, err
	}
	if !isMember {
		return false, nil
	}

	perms, err := e.Roles.RolePermissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, perm), nil
}

// UserPermissions returns the resolved role's permission set, or an
// empty set for non-members.
func (e *EngineImpl) UserPermissions(ctx context.Context, userID, groupID primitive.ObjectID) ([]models.Permission, error) {
	roleID, isMember, err := e.Memberships.MemberRole(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return []models.Permission{}, nil
	}
	return e.Roles.RolePermissions(ctx, roleID)
}

func (e *EngineImpl) Promote(ctx context.Context, groupID, targetID, roleID primitive.ObjectID) error {
	roleGroup, found, err := e.Roles.RoleGroup(ctx, roleID)
	if err != nil {
		return err
	}
	if !found || roleGroup != groupID {
		return ErrRoleNotInGroup
	}

	updated, err := e.Memberships.SetMemberRole(ctx, targetID, groupID, roleID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrTargetNotMember
	}
	return nil
}

// Demote resets a member to the group's base role. Demoting a member
// already on the base role is a no-op.
func (e *EngineImpl) Demote(ctx context.Context, groupID, userID primitive.ObjectID) error {
	baseID, err := e.Roles.BaseRole(ctx, groupID)
	if err != nil {
		return err
	}

	updated, err := e.Memberships.SetMemberRole(ctx, userID, groupID, baseID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrTargetNotMember
	}
	return nil
}
