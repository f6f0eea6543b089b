package group

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a community owned by exactly one user. The owner is fixed at
// creation; name is lowercase with no whitespace and unique.
type Group struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID  `json:"owner_id" bson:"owner_id"`
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description" bson:"description"`
	ImageID     *primitive.ObjectID `json:"image_id,omitempty" bson:"image_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

// Membership ties one user to one group under one role. At most one row
// exists per (user, group) pair, enforced by a unique index.
type Membership struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID   primitive.ObjectID `json:"user_id" bson:"user_id"`
	GroupID  primitive.ObjectID `json:"group_id" bson:"group_id"`
	RoleID   primitive.ObjectID `json:"role_id" bson:"role_id"`
	JoinedAt time.Time          `json:"joined_at" bson:"joined_at"`
}

// MemberItem is one row of a group's member listing.
type MemberItem struct {
	UserID   primitive.ObjectID `json:"user_id" bson:"user_id"`
	Username string             `json:"username" bson:"username"`
	RoleName string             `json:"role_name" bson:"role_name"`
}

// GroupListItem decorates a group with caller-relative data for the
// group listing.
type GroupListItem struct {
	Group       `bson:",inline"`
	IsMember    bool  `json:"is_member"`
	MemberCount int64 `json:"member_count"`
}
