package authz

import (
	"context"
	"errors"
	"testing"

	"go-forum/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memberKey struct {
	userID  primitive.ObjectID
	groupID primitive.ObjectID
}

type fakeMembershipStore struct {
	members map[memberKey]primitive.ObjectID
	err     error
}

func (f *fakeMembershipStore) MemberRole(ctx context.Context, userID, groupID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	if f.err != nil {
		return primitive.NilObjectID, false, f.err
	}
	roleID, ok := f.members[memberKey{userID, groupID}]
	return roleID, ok, nil
}

func (f *fakeMembershipStore) SetMemberRole(ctx context.Context, userID, groupID, roleID primitive.ObjectID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := memberKey{userID, groupID}
	if _, ok := f.members[key]; !ok {
		return false, nil
	}
	f.members[key] = roleID
	return true, nil
}

type fakeRole struct {
	groupID primitive.ObjectID
	perms   []models.Permission
	isBase  bool
}

type fakeRoleStore struct {
	roles map[primitive.ObjectID]fakeRole
}

func (f *fakeRoleStore) RolePermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return nil, errors.New("role not found")
	}
	return r.perms, nil
}

func (f *fakeRoleStore) RoleGroup(ctx context.Context, roleID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return primitive.NilObjectID, false, nil
	}
	return r.groupID, true, nil
}

func (f *fakeRoleStore) BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	for id, r := range f.roles {
		if r.groupID == groupID && r.isBase {
			return id, nil
		}
	}
	return primitive.NilObjectID, errors.New("base role not found")
}

type fixture struct {
	engine      Engine
	memberships *fakeMembershipStore
	roles       *fakeRoleStore
	groupID     primitive.ObjectID
	baseRoleID  primitive.ObjectID
	modRoleID   primitive.ObjectID
}

func newFixture() *fixture {
	groupID := primitive.NewObjectID()
	baseRoleID := primitive.NewObjectID()
	modRoleID := primitive.NewObjectID()

	roles := &fakeRoleStore{roles: map[primitive.ObjectID]fakeRole{
		baseRoleID: {groupID: groupID, perms: []models.Permission{}, isBase: true},
		modRoleID:  {groupID: groupID, perms: []models.Permission{models.PermissionDelete, models.PermissionBan}},
	}}
	memberships := &fakeMembershipStore{members: map[memberKey]primitive.ObjectID{}}

	return &fixture{
		engine:      NewEngine(memberships, roles),
		memberships: memberships,
		roles:       roles,
		groupID:     groupID,
		baseRoleID:  baseRoleID,
		modRoleID:   modRoleID,
	}
}

func (f *fixture) addMember(userID primitive.ObjectID, roleID primitive.ObjectID) {
	f.memberships.members[memberKey{userID, f.groupID}] = roleID
}

func TestHasPermissionNonMemberIsFalseNotError(t *testing.T) {
	f := newFixture()
	stranger := primitive.NewObjectID()

	allowed, err := f.engine.HasPermission(context.Background(), stranger, f.groupID, models.PermissionDelete)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected non-member to be denied")
	}
}

func TestHasPermissionModeratorCanDelete(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.modRoleID)

	allowed, err := f.engine.HasPermission(context.Background(), userID, f.groupID, models.PermissionDelete)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected moderator to hold the delete permission")
	}

	allowed, err = f.engine.HasPermission(context.Background(), userID, f.groupID, models.PermissionDropGroup)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected moderator to lack the drop group permission")
	}
}

func TestHasPermissionBaseMemberHasNothing(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.baseRoleID)

	for _, perm := range models.AllPermissions() {
		allowed, err := f.engine.HasPermission(context.Background(), userID, f.groupID, perm)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", perm, err)
		}
		if allowed {
			t.Errorf("Expected base member to lack %s", perm)
		}
	}
}

func TestUserPermissionsNonMemberEmpty(t *testing.T) {
	f := newFixture()
	stranger := primitive.NewObjectID()

	perms, err := f.engine.UserPermissions(context.Background(), stranger, f.groupID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("Expected empty permission set, got %v", perms)
	}
}

func TestPromoteChangesResolvedPermissions(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.baseRoleID)

	if err := f.engine.Promote(context.Background(), f.groupID, userID, f.modRoleID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	allowed, err := f.engine.HasPermission(context.Background(), userID, f.groupID, models.PermissionBan)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected promoted member to hold the ban permission")
	}
}

func TestPromoteRejectsForeignRole(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.baseRoleID)

	otherGroupRole := primitive.NewObjectID()
	f.roles.roles[otherGroupRole] = fakeRole{groupID: primitive.NewObjectID()}

	err := f.engine.Promote(context.Background(), f.groupID, userID, otherGroupRole)
	if !errors.Is(err, ErrRoleNotInGroup) {
		t.Errorf("Expected ErrRoleNotInGroup, got %v", err)
	}

	err = f.engine.Promote(context.Background(), f.groupID, userID, primitive.NewObjectID())
	if !errors.Is(err, ErrRoleNotInGroup) {
		t.Errorf("Expected ErrRoleNotInGroup for unknown role, got %v", err)
	}
}

func TestPromoteRejectsNonMember(t *testing.T) {
	f := newFixture()
	stranger := primitive.NewObjectID()

	err := f.engine.Promote(context.Background(), f.groupID, stranger, f.modRoleID)
	if !errors.Is(err, ErrTargetNotMember) {
		t.Errorf("Expected ErrTargetNotMember, got %v", err)
	}
}

func TestDemoteResetsToBaseRole(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.modRoleID)

	if err := f.engine.Demote(context.Background(), f.groupID, userID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	allowed, err := f.engine.HasPermission(context.Background(), userID, f.groupID, models.PermissionBan)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected demoted member to lose the ban permission")
	}

	// Demoting again is a no-op, not an error.
	if err := f.engine.Demote(context.Background(), f.groupID, userID); err != nil {
		t.Fatalf("Unexpected error on repeated demote: %v", err)
	}
}

func TestPermissionsResolveThroughRoleNotSnapshot(t *testing.T) {
	f := newFixture()
	userID := primitive.NewObjectID()
	f.addMember(userID, f.modRoleID)

	// Shrinking the role's permission set is visible on the next check.
	f.roles.roles[f.modRoleID] = fakeRole{groupID: f.groupID, perms: []models.Permission{models.PermissionBan}}

	allowed, err := f.engine.HasPermission(context.Background(), userID, f.groupID, models.PermissionDelete)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Error("Expected revoked permission to stop resolving")
	}
}
