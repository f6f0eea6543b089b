package role

import (
	"context"
	"slices"

	"go-forum/internal/common/models"
	"go-forum/internal/features/authz"
	"go-forum/internal/features/group"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RoleService interface {
	CreateRole(ctx context.Context, actorID, groupID primitive.ObjectID, name string, perms []models.Permission) (*Role, error)
	UpdateRolePermissions(ctx context.Context, actorID, roleID primitive.ObjectID, perms []models.Permission) error
	DeleteRole(ctx context.Context, actorID, roleID primitive.ObjectID) error
	ListRoles(ctx context.Context, groupID primitive.ObjectID) ([]Role, error)
	GetPermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error)
	RoleName(ctx context.Context, roleID primitive.ObjectID) (string, error)
}

type RoleServiceImpl struct {
	RoleRepo  RoleRepository
	GroupRepo group.GroupRepository
	Engine    authz.Engine
	Logger    *zap.Logger
}

func NewRoleService(roleRepo RoleRepository, groupRepo group.GroupRepository, engine authz.Engine, logger *zap.Logger) RoleService {
	return &RoleServiceImpl{
		RoleRepo:  roleRepo,
		GroupRepo: groupRepo,
		Engine:    engine,
		Logger:    logger,
	}
}

// CreateRole adds a role with an initial permission set. The acting
// user must own the group or hold ManageRole in it. Duplicate names
// within a group are not constrained.
func (s *RoleServiceImpl) CreateRole(ctx context.Context, actorID, groupID primitive.ObjectID, name string, perms []models.Permission) (*Role, error) {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, group.ErrGroupNotFound
	}

	allowed, err := s.canManageRoles(ctx, g, actorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, group.ErrPermissionDenied
	}

	r := &Role{
		GroupID:     groupID,
		Name:        name,
		Permissions: normalizePermissions(perms),
	}
	if err := s.RoleRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.Logger.Info("role created",
		zap.String("group", g.Name),
		zap.String("role", name),
	)
	return r, nil
}

// UpdateRolePermissions replaces the permission set wholesale; callers
// that want incremental change read the set first and resubmit it.
func (s *RoleServiceImpl) UpdateRolePermissions(ctx context.Context, actorID, roleID primitive.ObjectID, perms []models.Permission) error {
	r, err := s.RoleRepo.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRoleNotFound
	}
	if r.IsBase {
		return ErrBaseRoleImmutable
	}

	g, err := s.GroupRepo.FindByID(ctx, r.GroupID)
	if err != nil {
		return err
	}
	if g == nil {
		return group.ErrGroupNotFound
	}

	allowed, err := s.canManageRoles(ctx, g, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return group.ErrPermissionDenied
	}

	return s.RoleRepo.UpdatePermissions(ctx, roleID, normalizePermissions(perms))
}

// DeleteRole reassigns every holder to the base role and removes the
// role atomically. The base role itself is never deletable.
func (s *RoleServiceImpl) DeleteRole(ctx context.Context, actorID, roleID primitive.ObjectID) error {
	r, err := s.RoleRepo.FindByID(ctx, roleID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRoleNotFound
	}
	if r.IsBase {
		return ErrBaseRoleImmutable
	}

	g, err := s.GroupRepo.FindByID(ctx, r.GroupID)
	if err != nil {
		return err
	}
	if g == nil {
		return group.ErrGroupNotFound
	}

	allowed, err := s.canManageRoles(ctx, g, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return group.ErrPermissionDenied
	}

	if err := s.RoleRepo.Delete(ctx, roleID); err != nil {
		return err
	}

	s.Logger.Info("role deleted",
		zap.String("group", g.Name),
		zap.String("role", r.Name),
	)
	return nil
}

func (s *RoleServiceImpl) ListRoles(ctx context.Context, groupID primitive.ObjectID) ([]Role, error) {
	return s.RoleRepo.ListByGroup(ctx, groupID)
}

func (s *RoleServiceImpl) GetPermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error) {
	return s.RoleRepo.RolePermissions(ctx, roleID)
}

func (s *RoleServiceImpl) RoleName(ctx context.Context, roleID primitive.ObjectID) (string, error) {
	r, err := s.RoleRepo.FindByID(ctx, roleID)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", ErrRoleNotFound
	}
	return r.Name, nil
}

func (s *RoleServiceImpl) canManageRoles(ctx context.Context, g *group.Group, actorID primitive.ObjectID) (bool, error) {
	if g.OwnerID == actorID {
		return true, nil
	}
	return s.Engine.HasPermission(ctx, actorID, g.ID, models.PermissionManageRole)
}

// normalizePermissions drops unknown values and duplicates; the stored
// set has set semantics.
func normalizePermissions(perms []models.Permission) []models.Permission {
	out := make([]models.Permission, 0, len(perms))
	for _, p := range perms {
		if p.Valid() && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
