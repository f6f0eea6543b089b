package role

import (
	"context"
	"errors"
	"testing"

	"go-forum/internal/common/models"
	"go-forum/internal/features/group"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeRoleRepo mirrors the cascade: deleting a role moves its holders
// to the group's base role in the same step.
type fakeRoleRepo struct {
	roles       map[primitive.ObjectID]*Role
	assignments map[primitive.ObjectID]primitive.ObjectID // member -> role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:       map[primitive.ObjectID]*Role{},
		assignments: map[primitive.ObjectID]primitive.ObjectID{},
	}
}

func (f *fakeRoleRepo) Create(ctx context.Context, role *Role) error {
	role.ID = primitive.NewObjectID()
	if role.Permissions == nil {
		role.Permissions = []models.Permission{}
	}
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) CreateBase(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	r := &Role{GroupID: groupID, Name: BaseRoleName, IsBase: true, Permissions: []models.Permission{}}
	if err := f.Create(ctx, r); err != nil {
		return primitive.NilObjectID, err
	}
	return r.ID, nil
}

func (f *fakeRoleRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*Role, error) {
	return f.roles[id], nil
}

func (f *fakeRoleRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Role, error) {
	var out []Role
	for _, r := range f.roles {
		if r.GroupID == groupID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) UpdatePermissions(ctx context.Context, roleID primitive.ObjectID, perms []models.Permission) error {
	r, ok := f.roles[roleID]
	if !ok || r.IsBase {
		return ErrRoleNotFound
	}
	r.Permissions = perms
	return nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, roleID primitive.ObjectID) error {
	r, ok := f.roles[roleID]
	if !ok {
		return ErrRoleNotFound
	}
	if r.IsBase {
		return ErrBaseRoleImmutable
	}
	baseID, err := f.BaseRole(ctx, r.GroupID)
	if err != nil {
		return err
	}
	for member, assigned := range f.assignments {
		if assigned == roleID {
			f.assignments[member] = baseID
		}
	}
	delete(f.roles, roleID)
	return nil
}

func (f *fakeRoleRepo) RolePermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return nil, ErrRoleNotFound
	}
	return r.Permissions, nil
}

func (f *fakeRoleRepo) RoleGroup(ctx context.Context, roleID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return primitive.NilObjectID, false, nil
	}
	return r.GroupID, true, nil
}

func (f *fakeRoleRepo) BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	for id, r := range f.roles {
		if r.GroupID == groupID && r.IsBase {
			return id, nil
		}
	}
	return primitive.NilObjectID, errors.New("base role not found")
}

type fakeGroupRepo struct {
	groups map[primitive.ObjectID]*group.Group
}

func (f *fakeGroupRepo) Create(ctx context.Context, g *group.Group) error {
	g.ID = primitive.NewObjectID()
	f.groups[g.ID] = g
	return nil
}

func (f *fakeGroupRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*group.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroupRepo) FindByName(ctx context.Context, name string) (*group.Group, error) {
	return nil, nil
}

func (f *fakeGroupRepo) FindAll(ctx context.Context) ([]group.Group, error) { return nil, nil }

func (f *fakeGroupRepo) UpdateDescription(ctx context.Context, id primitive.ObjectID, description string) error {
	return nil
}

func (f *fakeGroupRepo) DeleteCascade(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakeGroupRepo) EnsureIndexes(ctx context.Context) error { return nil }

type grantEngine struct {
	grants map[primitive.ObjectID][]models.Permission
}

func (e *grantEngine) HasPermission(ctx context.Context, userID, groupID primitive.ObjectID, perm models.Permission) (bool, error) {
	for _, p := range e.grants[userID] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

func (e *grantEngine) UserPermissions(ctx context.Context, userID, groupID primitive.ObjectID) ([]models.Permission, error) {
	return e.grants[userID], nil
}

func (e *grantEngine) Promote(ctx context.Context, groupID, targetID, roleID primitive.ObjectID) error {
	return nil
}

func (e *grantEngine) Demote(ctx context.Context, groupID, userID primitive.ObjectID) error {
	return nil
}

type roleFixture struct {
	svc     *RoleServiceImpl
	repo    *fakeRoleRepo
	engine  *grantEngine
	group   *group.Group
	ownerID primitive.ObjectID
	baseID  primitive.ObjectID
}

func newRoleFixture(t *testing.T) *roleFixture {
	t.Helper()

	repo := newFakeRoleRepo()
	groups := &fakeGroupRepo{groups: map[primitive.ObjectID]*group.Group{}}
	engine := &grantEngine{grants: map[primitive.ObjectID][]models.Permission{}}

	ownerID := primitive.NewObjectID()
	g := &group.Group{OwnerID: ownerID, Name: "robotics"}
	if err := groups.Create(context.Background(), g); err != nil {
		t.Fatalf("Create group failed: %v", err)
	}
	baseID, err := repo.CreateBase(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("CreateBase failed: %v", err)
	}

	svc := &RoleServiceImpl{
		RoleRepo:  repo,
		GroupRepo: groups,
		Engine:    engine,
		Logger:    zap.NewNop(),
	}

	return &roleFixture{svc: svc, repo: repo, engine: engine, group: g, ownerID: ownerID, baseID: baseID}
}

func TestCreateRoleNeedsManageRoleOrOwnership(t *testing.T) {
	f := newRoleFixture(t)
	actorID := primitive.NewObjectID()

	_, err := f.svc.CreateRole(context.Background(), actorID, f.group.ID, "moderator", nil)
	if !errors.Is(err, group.ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got %v", err)
	}

	f.engine.grants[actorID] = []models.Permission{models.PermissionManageRole}
	r, err := f.svc.CreateRole(context.Background(), actorID, f.group.ID, "moderator", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.Permissions == nil || len(r.Permissions) != 0 {
		t.Errorf("Expected empty permission set, got %v", r.Permissions)
	}

	// The owner never needs a grant.
	if _, err := f.svc.CreateRole(context.Background(), f.ownerID, f.group.ID, "janitor", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestCreateRoleDropsInvalidAndDuplicatePermissions(t *testing.T) {
	f := newRoleFixture(t)

	perms := []models.Permission{
		models.PermissionBan,
		models.PermissionBan,
		models.Permission(99),
		models.PermissionDelete,
	}
	r, err := f.svc.CreateRole(context.Background(), f.ownerID, f.group.ID, "moderator", perms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(r.Permissions) != 2 {
		t.Errorf("Expected 2 permissions after normalization, got %v", r.Permissions)
	}
}

func TestUpdatePermissionsReplacesWholesale(t *testing.T) {
	f := newRoleFixture(t)

	r, err := f.svc.CreateRole(context.Background(), f.ownerID, f.group.ID, "moderator",
		[]models.Permission{models.PermissionBan, models.PermissionDelete})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	if err := f.svc.UpdateRolePermissions(context.Background(), f.ownerID, r.ID,
		[]models.Permission{models.PermissionPromote}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := f.svc.GetPermissions(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("GetPermissions failed: %v", err)
	}
	if len(got) != 1 || got[0] != models.PermissionPromote {
		t.Errorf("Expected only the promote permission, got %v", got)
	}
}

func TestUpdatePermissionsBaseRoleImmutable(t *testing.T) {
	f := newRoleFixture(t)

	err := f.svc.UpdateRolePermissions(context.Background(), f.ownerID, f.baseID,
		[]models.Permission{models.PermissionBan})
	if !errors.Is(err, ErrBaseRoleImmutable) {
		t.Errorf("Expected ErrBaseRoleImmutable, got %v", err)
	}
}

func TestDeleteRoleReassignsHolders(t *testing.T) {
	f := newRoleFixture(t)

	r, err := f.svc.CreateRole(context.Background(), f.ownerID, f.group.ID, "moderator",
		[]models.Permission{models.PermissionBan})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	memberID := primitive.NewObjectID()
	f.repo.assignments[memberID] = r.ID

	if err := f.svc.DeleteRole(context.Background(), f.ownerID, r.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := f.repo.assignments[memberID]; got != f.baseID {
		t.Errorf("Expected holder reassigned to base role, got %s", got.Hex())
	}
	if _, err := f.svc.RoleName(context.Background(), r.ID); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("Expected ErrRoleNotFound after delete, got %v", err)
	}
}

func TestDeleteBaseRoleRefused(t *testing.T) {
	f := newRoleFixture(t)

	err := f.svc.DeleteRole(context.Background(), f.ownerID, f.baseID)
	if !errors.Is(err, ErrBaseRoleImmutable) {
		t.Errorf("Expected ErrBaseRoleImmutable, got %v", err)
	}
}

func TestDeleteUnknownRole(t *testing.T) {
	f := newRoleFixture(t)

	err := f.svc.DeleteRole(context.Background(), f.ownerID, primitive.NewObjectID())
	if !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("Expected ErrRoleNotFound, got %v", err)
	}
}
