package group

import (
	"context"
	"errors"

	"go-forum/internal/common/models"
	"go-forum/internal/database"
	"go-forum/internal/features/authz"
	"go-forum/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrInvalidGroupName = errors.New("group name must be lowercase with no whitespace")

// RoleBootstrapper is the slice of the role registry the group feature
// needs: every group gets a base role at creation, and joins resolve it.
type RoleBootstrapper interface {
	CreateBase(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error)
	BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error)
}

// UserFinder checks that a removal target actually exists.
type UserFinder interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*Group, error)
	ListGroups(ctx context.Context, userID primitive.ObjectID) ([]GroupListItem, error)
	GetGroup(ctx context.Context, id primitive.ObjectID) (*Group, error)
	UpdateDescription(ctx context.Context, id primitive.ObjectID, description string) error
	DeleteGroup(ctx context.Context, actorID, groupID primitive.ObjectID) error
	Join(ctx context.Context, userID, groupID primitive.ObjectID) error
	Leave(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveMember(ctx context.Context, actorID, groupID, targetID primitive.ObjectID) error
	Members(ctx context.Context, groupID primitive.ObjectID) ([]MemberItem, error)
	Promote(ctx context.Context, actorID, groupID, targetID, roleID primitive.ObjectID) error
	Demote(ctx context.Context, actorID, groupID, targetID primitive.ObjectID) error
}

type GroupServiceImpl struct {
	db             *database.MongodbDB
	GroupRepo      GroupRepository
	MembershipRepo MembershipRepository
	Engine         authz.Engine
	Roles          RoleBootstrapper
	Users          UserFinder
	Logger         *zap.Logger
}

func NewGroupService(
	db *database.MongodbDB,
	groupRepo GroupRepository,
	membershipRepo MembershipRepository,
	engine authz.Engine,
	roles RoleBootstrapper,
	users UserFinder,
	logger *zap.Logger,
) GroupService {
	return &GroupServiceImpl{
		db:             db,
		GroupRepo:      groupRepo,
		MembershipRepo: membershipRepo,
		Engine:         engine,
		Roles:          roles,
		Users:          users,
		Logger:         logger,
	}
}

// CreateGroup creates the group, its base role and the owner's
// membership in one transaction. The owner joins at the base role like
// anyone else; ownership itself is never stored as a membership.
func (s *GroupServiceImpl) CreateGroup(ctx context.Context, ownerID primitive.ObjectID, name, description string) (*Group, error) {
	name = utils.NormalizeGroupName(name)
	if !utils.ValidGroupName(name) {
		return nil, ErrInvalidGroupName
	}

	g := &Group{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
	}

	err := s.db.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.GroupRepo.Create(sc, g); err != nil {
			return nil, err
		}
		baseID, err := s.Roles.CreateBase(sc, g.ID)
		if err != nil {
			return nil, err
		}
		return nil, s.MembershipRepo.AddMember(sc, g.ID, ownerID, baseID)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("group created",
		zap.String("group", g.Name),
		zap.String("owner", ownerID.Hex()),
	)
	return g, nil
}

func (s *GroupServiceImpl) ListGroups(ctx context.Context, userID primitive.ObjectID) ([]GroupListItem, error) {
	groups, err := s.GroupRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	memberOf, err := s.MembershipRepo.UserGroups(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberSet := make(map[primitive.ObjectID]bool, len(memberOf))
	for _, id := range memberOf {
		memberSet[id] = true
	}

	items := make([]GroupListItem, 0, len(groups))
	for _, g := range groups {
		count, err := s.MembershipRepo.MemberCount(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, GroupListItem{
			Group:       g,
			IsMember:    memberSet[g.ID],
			MemberCount: count,
		})
	}
	return items, nil
}

func (s *GroupServiceImpl) GetGroup(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	g, err := s.GroupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func (s *GroupServiceImpl) UpdateDescription(ctx context.Context, id primitive.ObjectID, description string) error {
	g, err := s.GroupRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	return s.GroupRepo.UpdateDescription(ctx, id, description)
}

// DeleteGroup requires both the DropGroup permission and ownership.
// Ownership alone is not sufficient, and neither is the permission.
func (s *GroupServiceImpl) DeleteGroup(ctx context.Context, actorID, groupID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	canDrop, err := s.Engine.HasPermission(ctx, actorID, groupID, models.PermissionDropGroup)
	if err != nil {
		return err
	}
	if !canDrop || g.OwnerID != actorID {
		return ErrPermissionDenied
	}

	if err := s.GroupRepo.DeleteCascade(ctx, groupID); err != nil {
		return err
	}

	s.Logger.Warn("group deleted",
		zap.String("group", g.Name),
		zap.String("user_id", actorID.Hex()),
	)
	return nil
}

func (s *GroupServiceImpl) Join(ctx context.Context, userID, groupID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	baseID, err := s.Roles.BaseRole(ctx, groupID)
	if err != nil {
		return err
	}
	return s.MembershipRepo.AddMember(ctx, groupID, userID, baseID)
}

// Leave is the self-initiated exit. The owner may never leave this way;
// the only way out for an owner is deleting the group.
func (s *GroupServiceImpl) Leave(ctx context.Context, userID, groupID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}
	if g.OwnerID == userID {
		return ErrOwnerCannotLeave
	}

	removed, err := s.MembershipRepo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}
	return nil
}

// RemoveMember is the moderation path: the actor needs the Ban
// permission. It carries no owner guard; that guard belongs to the
// self-exit path only.
func (s *GroupServiceImpl) RemoveMember(ctx context.Context, actorID, groupID, targetID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	canBan, err := s.Engine.HasPermission(ctx, actorID, groupID, models.PermissionBan)
	if err != nil {
		return err
	}
	if !canBan {
		return ErrPermissionDenied
	}

	exists, err := s.Users.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	removed, err := s.MembershipRepo.RemoveMember(ctx, groupID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}

	s.Logger.Info("member removed",
		zap.String("group", g.Name),
		zap.String("target", targetID.Hex()),
		zap.String("user_id", actorID.Hex()),
	)
	return nil
}

func (s *GroupServiceImpl) Members(ctx context.Context, groupID primitive.ObjectID) ([]MemberItem, error) {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return s.MembershipRepo.ListMembers(ctx, groupID)
}

// Promote reassigns the target's role. The acting user must hold the
// Promote permission or own the group; the engine itself stays a pure
// mechanism and re-verifies nothing about the actor.
func (s *GroupServiceImpl) Promote(ctx context.Context, actorID, groupID, targetID, roleID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	allowed, err := s.canManageMembers(ctx, g, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}

	return s.Engine.Promote(ctx, groupID, targetID, roleID)
}

func (s *GroupServiceImpl) Demote(ctx context.Context, actorID, groupID, targetID primitive.ObjectID) error {
	g, err := s.GroupRepo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrGroupNotFound
	}

	allowed, err := s.canManageMembers(ctx, g, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}

	return s.Engine.Demote(ctx, groupID, targetID)
}

func (s *GroupServiceImpl) canManageMembers(ctx context.Context, g *Group, actorID primitive.ObjectID) (bool, error) {
	if g.OwnerID == actorID {
		return true, nil
	}
	return s.Engine.HasPermission(ctx, actorID, g.ID, models.PermissionPromote)
}
