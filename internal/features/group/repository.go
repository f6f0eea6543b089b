package group

import (
	"context"
	"errors"
	"time"

	"go-forum/internal/database"
	"go-forum/internal/features/authz"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupNameTaken   = errors.New("group already exists")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrNotMember        = errors.New("user is not a member")
	ErrOwnerCannotLeave = errors.New("owner can't quit")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUserNotFound     = errors.New("user not found")
)

type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	FindByName(ctx context.Context, name string) (*Group, error)
	FindAll(ctx context.Context) ([]Group, error)
	UpdateDescription(ctx context.Context, id primitive.ObjectID, description string) error
	DeleteCascade(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type GroupRepositoryImpl struct {
	db         *database.MongodbDB
	Collection *mongo.Collection
}

func NewGroupRepository(mongodb *database.MongodbDB) GroupRepository {
	return &GroupRepositoryImpl{
		db:         mongodb,
		Collection: mongodb.DB.Collection("groups"),
	}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *Group) error {
	group.CreatedAt = time.Now()

	result, err := r.Collection.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrGroupNameTaken
		}
		return err
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	var g Group
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepositoryImpl) FindByName(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := r.Collection.FindOne(ctx, bson.M{"name": name}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepositoryImpl) FindAll(ctx context.Context) ([]Group, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepositoryImpl) UpdateDescription(ctx context.Context, id primitive.ObjectID, description string) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"description": description},
	})
	return err
}

// DeleteCascade removes the group together with its roles, memberships,
// posts and comments in one transaction.
func (r *GroupRepositoryImpl) DeleteCascade(ctx context.Context, id primitive.ObjectID) error {
	db := r.db.DB
	return r.db.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cursor, err := db.Collection("posts").Find(sc, bson.M{"group_id": id})
		if err != nil {
			return nil, err
		}
		var postIDs []primitive.ObjectID
		for cursor.Next(sc) {
			var doc struct {
				ID primitive.ObjectID `bson:"_id"`
			}
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(sc)
				return nil, err
			}
			postIDs = append(postIDs, doc.ID)
		}
		cursor.Close(sc)

		if len(postIDs) > 0 {
			if _, err := db.Collection("comments").DeleteMany(sc, bson.M{"post_id": bson.M{"$in": postIDs}}); err != nil {
				return nil, err
			}
		}
		if _, err := db.Collection("posts").DeleteMany(sc, bson.M{"group_id": id}); err != nil {
			return nil, err
		}
		if _, err := db.Collection("memberships").DeleteMany(sc, bson.M{"group_id": id}); err != nil {
			return nil, err
		}
		if _, err := db.Collection("roles").DeleteMany(sc, bson.M{"group_id": id}); err != nil {
			return nil, err
		}
		if _, err := r.Collection.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

func (r *GroupRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type MembershipRepository interface {
	AddMember(ctx context.Context, groupID, userID, roleID primitive.ObjectID) error
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error)
	MemberRole(ctx context.Context, userID, groupID primitive.ObjectID) (primitive.ObjectID, bool, error)
	SetMemberRole(ctx context.Context, userID, groupID, roleID primitive.ObjectID) (bool, error)
	UserGroups(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	MemberCount(ctx context.Context, groupID primitive.ObjectID) (int64, error)
	ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]MemberItem, error)
	EnsureIndexes(ctx context.Context) error
}

type MembershipRepositoryImpl struct {
	db         *database.MongodbDB
	Collection *mongo.Collection
	Roles      *mongo.Collection
}

func NewMembershipRepository(mongodb *database.MongodbDB) MembershipRepository {
	return &MembershipRepositoryImpl{
		db:         mongodb,
		Collection: mongodb.DB.Collection("memberships"),
		Roles:      mongodb.DB.Collection("roles"),
	}
}

// AddMember inserts the membership row. The unique (user_id, group_id)
// index serializes concurrent joins: the losing insert surfaces as
// ErrAlreadyMember, never a duplicate row.
func (r *MembershipRepositoryImpl) AddMember(ctx context.Context, groupID, userID, roleID primitive.ObjectID) error {
	m := Membership{
		UserID:   userID,
		GroupID:  groupID,
		RoleID:   roleID,
		JoinedAt: time.Now(),
	}

	_, err := r.Collection.InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyMember
	}
	return err
}

func (r *MembershipRepositoryImpl) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	result, err := r.Collection.DeleteOne(ctx, bson.M{"user_id": userID, "group_id": groupID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *MembershipRepositoryImpl) IsMember(ctx context.Context, userID, groupID primitive.ObjectID) (bool, error) {
	count, err := r.Collection.CountDocuments(ctx, bson.M{"user_id": userID, "group_id": groupID})
	return count > 0, err
}

// MemberRole returns the member's role id, or false when no membership
// row exists. Absence is a normal outcome here, not an error.
func (r *MembershipRepositoryImpl) MemberRole(ctx context.Context, userID, groupID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	var m Membership
	err := r.Collection.FindOne(ctx, bson.M{"user_id": userID, "group_id": groupID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return m.RoleID, true, nil
}

// SetMemberRole rewrites the membership's role. The role is re-verified
// inside the same transaction, so a promote racing a role deletion is
// rejected with ErrRoleNotInGroup instead of leaving a dangling role id.
func (r *MembershipRepositoryImpl) SetMemberRole(ctx context.Context, userID, groupID, roleID primitive.ObjectID) (bool, error) {
	var updated bool
	err := r.db.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		count, err := r.Roles.CountDocuments(sc, bson.M{"_id": roleID, "group_id": groupID})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, authz.ErrRoleNotInGroup
		}

		result, err := r.Collection.UpdateOne(sc,
			bson.M{"user_id": userID, "group_id": groupID},
			bson.M{"$set": bson.M{"role_id": roleID}},
		)
		if err != nil {
			return nil, err
		}
		updated = result.MatchedCount > 0
		return nil, nil
	})
	return updated, err
}

func (r *MembershipRepositoryImpl) UserGroups(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groupIDs []primitive.ObjectID
	for cursor.Next(ctx) {
		var m Membership
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, m.GroupID)
	}
	return groupIDs, cursor.Err()
}

func (r *MembershipRepositoryImpl) MemberCount(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"group_id": groupID})
}

// ListMembers joins memberships with users and roles to produce the
// member listing with display role names.
func (r *MembershipRepositoryImpl) ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]MemberItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"group_id": groupID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "roles",
			"localField":   "role_id",
			"foreignField": "_id",
			"as":           "role",
		}}},
		{{Key: "$unwind", Value: "$role"}},
		{{Key: "$project", Value: bson.M{
			"user_id":   "$user_id",
			"username":  "$user.username",
			"role_name": "$role.name",
		}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []MemberItem
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MembershipRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
