package role

import (
	"context"
	"errors"

	"go-forum/internal/common/models"
	"go-forum/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrBaseRoleImmutable = errors.New("base role cannot be changed or deleted")
)

type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	CreateBase(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Role, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Role, error)
	UpdatePermissions(ctx context.Context, roleID primitive.ObjectID, perms []models.Permission) error
	Delete(ctx context.Context, roleID primitive.ObjectID) error
	RolePermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error)
	RoleGroup(ctx context.Context, roleID primitive.ObjectID) (primitive.ObjectID, bool, error)
	BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error)
}

type RoleRepositoryImpl struct {
	db          *database.MongodbDB
	Collection  *mongo.Collection
	Memberships *mongo.Collection
}

func NewRoleRepository(mongodb *database.MongodbDB) RoleRepository {
	return &RoleRepositoryImpl{
		db:          mongodb,
		Collection:  mongodb.DB.Collection("roles"),
		Memberships: mongodb.DB.Collection("memberships"),
	}
}

func (r *RoleRepositoryImpl) Create(ctx context.Context, role *Role) error {
	if role.Permissions == nil {
		role.Permissions = []models.Permission{}
	}

	result, err := r.Collection.InsertOne(ctx, role)
	if err != nil {
		return err
	}

	role.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// CreateBase inserts the group's base role: name "member", empty
// permission set. Called once per group, inside the group creation
// transaction.
func (r *RoleRepositoryImpl) CreateBase(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	base := &Role{
		GroupID:     groupID,
		Name:        BaseRoleName,
		IsBase:      true,
		Permissions: []models.Permission{},
	}
	if err := r.Create(ctx, base); err != nil {
		return primitive.NilObjectID, err
	}
	return base.ID, nil
}

func (r *RoleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Role, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Role, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []Role
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// UpdatePermissions replaces the role's permission set wholesale. The
// base role is excluded by filter so its set stays empty.
func (r *RoleRepositoryImpl) UpdatePermissions(ctx context.Context, roleID primitive.ObjectID, perms []models.Permission) error {
	result, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": roleID, "is_base": false},
		bson.M{"$set": bson.M{"permissions": perms}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// Delete removes the role after reassigning every membership holding it
// to the group's base role. Both steps run in one transaction, so no
// membership ever points at a deleted role.
func (r *RoleRepositoryImpl) Delete(ctx context.Context, roleID primitive.ObjectID) error {
	return r.db.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var role Role
		err := r.Collection.FindOne(sc, bson.M{"_id": roleID}).Decode(&role)
		if err == mongo.ErrNoDocuments {
			return nil, ErrRoleNotFound
		}
		if err != nil {
			return nil, err
		}
		if role.IsBase {
			return nil, ErrBaseRoleImmutable
		}

		baseID, err := r.baseRole(sc, role.GroupID)
		if err != nil {
			return nil, err
		}

		if _, err := r.Memberships.UpdateMany(sc,
			bson.M{"role_id": roleID},
			bson.M{"$set": bson.M{"role_id": baseID}},
		); err != nil {
			return nil, err
		}

		_, err = r.Collection.DeleteOne(sc, bson.M{"_id": roleID})
		return nil, err
	})
}

func (r *RoleRepositoryImpl) RolePermissions(ctx context.Context, roleID primitive.ObjectID) ([]models.Permission, error) {
	role, err := r.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role.Permissions, nil
}

func (r *RoleRepositoryImpl) RoleGroup(ctx context.Context, roleID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	role, err := r.FindByID(ctx, roleID)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if role == nil {
		return primitive.NilObjectID, false, nil
	}
	return role.GroupID, true, nil
}

func (r *RoleRepositoryImpl) BaseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	return r.baseRole(ctx, groupID)
}

func (r *RoleRepositoryImpl) baseRole(ctx context.Context, groupID primitive.ObjectID) (primitive.ObjectID, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"group_id": groupID, "is_base": true}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, ErrRoleNotFound
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return role.ID, nil
}
